package profile

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"wander/db"
	"wander/models"
	"wander/mq"
	"wander/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

// GetProfile returns the authenticated user's profile. This is the author
// block shown on any journey the user publishes.
func GetProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	err := db.UserCollection.FindOne(ctx, bson.M{"userid": userID}).Decode(&user)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	utils.SendResponse(w, http.StatusOK, models.Author{
		Name:      displayName(&user),
		AvatarURL: user.Avatar,
		Bio:       user.Bio,
	}, "Profile fetched", nil)
}

// UpdateProfile merges name/bio edits into the stored user.
func UpdateProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		Name *string `json:"name"`
		Bio  *string `json:"bio"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}

	set := bson.M{"updated_at": time.Now()}
	if body.Name != nil {
		set["name"] = *body.Name
	}
	if body.Bio != nil {
		set["bio"] = *body.Bio
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	_, err := db.UserCollection.UpdateOne(ctx, bson.M{"userid": userID}, bson.M{"$set": set})
	if err != nil {
		log.Printf("Failed to update profile for %s: %v", userID, err)
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}

	mq.Emit(r.Context(), "profile-updated", mq.Event{EntityType: "user", Method: "PUT", EntityID: userID, UserID: userID})

	utils.SendResponse(w, http.StatusOK, nil, "Profile updated", nil)
}

func displayName(user *models.User) string {
	if user.Name != "" {
		return user.Name
	}
	return user.Username
}
