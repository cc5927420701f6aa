package profile

import (
	"context"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"wander/db"
	"wander/utils"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

const maxAvatarSize = 8 << 20

var avatarDir = filepath.Join("static", "userpic")

// UploadAvatar replaces the user's avatar with a resized copy of the
// uploaded photo.
func UploadAvatar(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		http.Error(w, "Missing avatar file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !utils.ValidateImageFileType(w, header) {
		return
	}

	img, err := imaging.Decode(file)
	if err != nil {
		http.Error(w, "Failed to decode image", http.StatusBadRequest)
		return
	}

	if err := utils.EnsureDir(avatarDir); err != nil {
		http.Error(w, "Failed to save avatar", http.StatusInternalServerError)
		return
	}

	name := uuid.New().String() + ".jpg"
	avatar := imaging.Fill(img, 256, 256, imaging.Center, imaging.Lanczos)
	if err := imaging.Save(avatar, filepath.Join(avatarDir, name)); err != nil {
		log.Printf("Failed to save avatar for %s: %v", userID, err)
		http.Error(w, "Failed to save avatar", http.StatusInternalServerError)
		return
	}

	url := "/static/userpic/" + name

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	_, err = db.UserCollection.UpdateOne(ctx, bson.M{"userid": userID},
		bson.M{"$set": bson.M{"avatar": url, "updated_at": time.Now()}})
	if err != nil {
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}

	utils.SendResponse(w, http.StatusOK, map[string]string{"avatar": url}, "Avatar updated", nil)
}
