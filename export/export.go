package export

import (
	"bytes"
	"fmt"
	"net/http"
	"os"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	qrcode "github.com/skip2/go-qrcode"

	"wander/journeyctx"
	"wander/models"
	"wander/utils"
)

func publicBaseURL() string {
	if base := os.Getenv("PUBLIC_BASE_URL"); base != "" {
		return base
	}
	return "http://localhost:8080"
}

// shareTarget is the page a scanned QR lands on: the source template when
// the journey is a fork, the journey itself otherwise.
func shareTarget(j *models.Journey) string {
	id := j.JourneyID
	if models.IsFork(j) {
		id = j.SourceJourneyID
	}
	return publicBaseURL() + "/journeys/" + id
}

// BuildItineraryPDF renders a printable one-page itinerary with the stop
// checklist, notes and a share QR.
func BuildItineraryPDF(j *models.Journey) ([]byte, error) {
	qrPNG, err := qrcode.Encode(shareTarget(j), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, j.Title)
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	if j.Location != "" {
		pdf.Cell(0, 8, "Location: "+j.Location)
		pdf.Ln(7)
	}
	if j.Duration != "" {
		pdf.Cell(0, 8, "Duration: "+j.Duration)
		pdf.Ln(7)
	}
	if j.Author.Name != "" {
		pdf.Cell(0, 8, "By: "+j.Author.Name)
		pdf.Ln(7)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 9, "Stops")
	pdf.Ln(9)

	pdf.SetFont("Arial", "", 11)
	for i, stop := range j.Stops {
		marker := "[ ]"
		if stop.Visited {
			marker = "[x]"
		}
		pdf.Cell(0, 7, fmt.Sprintf("%d. %s %s", i+1, marker, stop.Name))
		pdf.Ln(6)
		if stop.Note != "" {
			pdf.SetFont("Arial", "I", 10)
			pdf.Cell(0, 6, "      "+stop.Note)
			pdf.Ln(6)
			pdf.SetFont("Arial", "", 11)
		}
	}

	if len(j.Moments) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(0, 6, fmt.Sprintf("%d moments captured along the way", len(j.Moments)))
		pdf.Ln(6)
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("share-qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("share-qr", 160, 12, 36, 36, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// GET /api/planner/journeys/:forkid/print
func PrintJourney(manager *journeyctx.Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		fork, err := manager.Session(userID).Planner().GetByID(r.Context(), ps.ByName("forkid"))
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Error loading journey")
			return
		}
		if fork == nil {
			utils.RespondWithError(w, http.StatusNotFound, "Journey not found")
			return
		}

		pdfBytes, err := BuildItineraryPDF(fork)
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate PDF")
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", "attachment; filename=journey-"+fork.JourneyID+".pdf")
		w.WriteHeader(http.StatusOK)
		w.Write(pdfBytes)
	}
}

// GET /api/planner/journeys/:forkid/share
func ShareQR(manager *journeyctx.Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		fork, err := manager.Session(userID).Planner().GetByID(r.Context(), ps.ByName("forkid"))
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Error loading journey")
			return
		}
		if fork == nil {
			utils.RespondWithError(w, http.StatusNotFound, "Journey not found")
			return
		}

		qrPNG, err := qrcode.Encode(shareTarget(fork), qrcode.Medium, 256)
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate QR code")
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		w.Write(qrPNG)
	}
}
