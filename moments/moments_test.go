package moments

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path"
	"path/filepath"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/require"

	"wander/globals"
	"wander/journeyctx"
	"wander/kv"
	"wander/models"
)

type memCatalog struct {
	sources []*models.Journey
}

func (c *memCatalog) List(ctx context.Context) ([]*models.Journey, error) {
	out := make([]*models.Journey, len(c.sources))
	for i, s := range c.sources {
		out[i] = s.Clone()
	}
	return out, nil
}

func (c *memCatalog) GetByID(ctx context.Context, id string) (*models.Journey, error) {
	for _, s := range c.sources {
		if s.JourneyID == id {
			return s.Clone(), nil
		}
	}
	return nil, nil
}

func newForkedSession(t *testing.T) (*journeyctx.Manager, string) {
	t.Helper()
	catalog := &memCatalog{sources: []*models.Journey{{
		JourneyID: "kyoto-classic",
		Title:     "Kyoto Classic",
		Stops:     []models.Stop{{StopID: "s1", Name: "Gion", Coordinates: models.Coordinates{135.7755, 35.0037}}},
	}}}
	manager := journeyctx.NewManager(kv.NewMemoryStore(), catalog)
	fork, err := manager.Session("u1").Fork(context.Background(), "kyoto-classic")
	require.NoError(t, err)
	return manager, fork.JourneyID
}

func authed(req *http.Request) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), globals.UserIDKey, "u1"))
}

func TestAddMomentJSON(t *testing.T) {
	manager, forkID := newForkedSession(t)

	body, _ := json.Marshal(models.Moment{
		Coordinates: models.Coordinates{135.776, 35.004},
		ImageURL:    "/static/momentpic/existing.jpg",
		Caption:     "Lanterns at dusk",
	})
	req := authed(httptest.NewRequest(http.MethodPost, "/x", bytes.NewReader(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	AddMoment(manager)(w, req, httprouter.Params{{Key: "forkid", Value: forkID}})
	require.Equal(t, http.StatusCreated, w.Code)

	var stored models.Moment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stored))
	require.NotEmpty(t, stored.MomentID)
	require.Equal(t, "Lanterns at dusk", stored.Caption)

	fork, err := manager.Session("u1").Planner().GetByID(context.Background(), forkID)
	require.NoError(t, err)
	require.Len(t, fork.Moments, 2)
}

func TestAddMomentJSONRequiresImage(t *testing.T) {
	manager, forkID := newForkedSession(t)

	req := authed(httptest.NewRequest(http.MethodPost, "/x", bytes.NewReader([]byte(`{"caption":"no photo"}`))))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	AddMoment(manager)(w, req, httprouter.Params{{Key: "forkid", Value: forkID}})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddMomentUnknownForkIsSilent(t *testing.T) {
	manager, _ := newForkedSession(t)

	body, _ := json.Marshal(models.Moment{ImageURL: "/static/momentpic/x.jpg"})
	req := authed(httptest.NewRequest(http.MethodPost, "/x", bytes.NewReader(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	AddMoment(manager)(w, req, httprouter.Params{{Key: "forkid", Value: "nope"}})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "null", string(bytes.TrimSpace(w.Body.Bytes())))
}

func multipartPhotoRequest(t *testing.T, lon, lat, caption string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="photo"; filename="photo.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := writer.CreatePart(h)
	require.NoError(t, err)
	require.NoError(t, jpeg.Encode(part, image.NewRGBA(image.Rect(0, 0, 8, 8)), nil))

	require.NoError(t, writer.WriteField("lon", lon))
	require.NoError(t, writer.WriteField("lat", lat))
	require.NoError(t, writer.WriteField("caption", caption))
	require.NoError(t, writer.Close())

	req := authed(httptest.NewRequest(http.MethodPost, "/x", &buf))
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestAddMomentMultipart(t *testing.T) {
	old := uploadDir
	uploadDir = t.TempDir()
	defer func() { uploadDir = old }()

	manager, forkID := newForkedSession(t)

	w := httptest.NewRecorder()
	AddMoment(manager)(w, multipartPhotoRequest(t, "135.776", "35.004", "Night market"), httprouter.Params{{Key: "forkid", Value: forkID}})
	require.Equal(t, http.StatusCreated, w.Code)

	var stored models.Moment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stored))
	require.Equal(t, "Night market", stored.Caption)
	require.Equal(t, 135.776, stored.Coordinates.Lng())
	require.Equal(t, 35.004, stored.Coordinates.Lat())
	require.Equal(t, "/static/momentpic", path.Dir(stored.ImageURL))

	name := path.Base(stored.ImageURL)
	_, err := os.Stat(filepath.Join(uploadDir, name))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(uploadDir, "thumb", name))
	require.NoError(t, err)
}

func TestAddMomentMultipartBadCoords(t *testing.T) {
	old := uploadDir
	uploadDir = t.TempDir()
	defer func() { uploadDir = old }()

	manager, forkID := newForkedSession(t)

	w := httptest.NewRecorder()
	AddMoment(manager)(w, multipartPhotoRequest(t, "not-a-number", "35.004", ""), httprouter.Params{{Key: "forkid", Value: forkID}})
	require.Equal(t, http.StatusBadRequest, w.Code)
}
