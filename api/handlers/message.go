package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/civicfix/complaint-api/config"
	"github.com/civicfix/complaint-api/databases"
	"github.com/civicfix/complaint-api/models"
)

// Message exported for testing purposes
type Message struct {
	DB  databases.MessageDatabase
	UDB databases.UserDatabase
	CDB databases.ComplaintDatabase
}

// MessagesByComplaintIDHandler returns the chat history for a complaint with
// sender and recipient populated, oldest first. Citizens can only read the
// history of their own complaints.
func (m Message) MessagesByComplaintIDHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := authedUser(m.UDB, w, r)
	if !ok {
		return
	}

	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["complaint_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	complaint, err := m.CDB.FindOne(context.Background(), bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to get complaint by ID", http.StatusNotFound, w, err)
		return
	}
	if !user.IsAdmin && complaint.User != user.ID {
		config.ErrorStatus("not allowed to view this conversation", http.StatusForbidden, w, errors.New("not the complaint owner"))
		return
	}

	dbResp, err := m.DB.FindWithUsers(context.TODO(), cID)
	if err != nil {
		config.ErrorStatus("failed to get messages", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.MessageDetails{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
