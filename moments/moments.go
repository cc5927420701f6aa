package moments

import (
	"encoding/json"
	"fmt"
	"log"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	_ "golang.org/x/image/webp"

	"wander/journeyctx"
	"wander/models"
	"wander/mq"
	"wander/utils"
)

const maxPhotoSize = 12 << 20

var uploadDir = filepath.Join("static", "momentpic")

// SavePhoto decodes an uploaded image, stores it as jpg and writes a 300px
// thumbnail next to it under thumb/. Returns the public URL of the original.
func SavePhoto(file multipart.File) (string, error) {
	img, err := imaging.Decode(file)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	name := uuid.New().String()
	originalPath := filepath.Join(uploadDir, name+".jpg")
	thumbDir := filepath.Join(uploadDir, "thumb")
	thumbnailPath := filepath.Join(thumbDir, name+".jpg")

	if err := utils.EnsureDir(uploadDir); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := utils.EnsureDir(thumbDir); err != nil {
		return "", fmt.Errorf("failed to create thumbnail directory: %w", err)
	}

	if err := imaging.Save(img, originalPath); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	thumb := imaging.Resize(img, 300, 0, imaging.Lanczos)
	if err := imaging.Save(thumb, thumbnailPath); err != nil {
		return "", fmt.Errorf("failed to save thumbnail: %w", err)
	}

	return "/static/momentpic/" + name + ".jpg", nil
}

func momentFromMultipart(w http.ResponseWriter, r *http.Request) (*models.Moment, bool) {
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return nil, false
	}

	lon, errLon := strconv.ParseFloat(r.FormValue("lon"), 64)
	lat, errLat := strconv.ParseFloat(r.FormValue("lat"), 64)
	if errLon != nil || errLat != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Valid lon and lat are required")
		return nil, false
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Photo file is required")
		return nil, false
	}
	defer file.Close()

	if !utils.ValidateImageFileType(w, header) {
		return nil, false
	}

	imageURL, err := SavePhoto(file)
	if err != nil {
		log.Println("[Moments] save photo:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Error saving photo")
		return nil, false
	}

	return &models.Moment{
		Coordinates: models.Coordinates{lon, lat},
		ImageURL:    imageURL,
		Caption:     r.FormValue("caption"),
	}, true
}

func momentFromJSON(w http.ResponseWriter, r *http.Request) (*models.Moment, bool) {
	var m models.Moment
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return nil, false
	}
	if m.ImageURL == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "imageUrl is required")
		return nil, false
	}
	return &m, true
}

// POST /api/planner/journeys/:forkid/moments
// Accepts either a JSON moment or a multipart form with a photo file.
func AddMoment(manager *journeyctx.Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

		var (
			moment *models.Moment
			ok     bool
		)
		if mediaType == "multipart/form-data" {
			moment, ok = momentFromMultipart(w, r)
		} else {
			moment, ok = momentFromJSON(w, r)
		}
		if !ok {
			return
		}

		forkID := ps.ByName("forkid")
		stored, err := manager.Session(userID).AddMoment(r.Context(), forkID, *moment)
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Error saving moment")
			return
		}
		if stored == nil {
			utils.RespondWithJSON(w, http.StatusOK, nil)
			return
		}

		mq.Emit(r.Context(), "moment-added", mq.Event{
			EntityType: "journey",
			Method:     "POST",
			EntityID:   forkID,
			UserID:     userID,
			ItemID:     stored.MomentID,
		})

		utils.RespondWithJSON(w, http.StatusCreated, stored)
	}
}
