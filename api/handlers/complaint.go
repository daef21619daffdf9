package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/civicfix/complaint-api/api"
	"github.com/civicfix/complaint-api/config"
	"github.com/civicfix/complaint-api/databases"
	"github.com/civicfix/complaint-api/models"
	templates "github.com/civicfix/complaint-api/templates/html"
)

const maxUploadSize = 10 << 20 // 10MB

// Complaint exported for testing purposes
type Complaint struct {
	DB         databases.ComplaintDatabase
	UDB        databases.UserDatabase
	MDB        databases.MessageDatabase
	Cloudinary *cloudinary.Cloudinary
}

// authedUser resolves the account the auth middleware stashed on the request.
// Writes the error response itself so callers just bail on !ok.
func authedUser(udb databases.UserDatabase, w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	userID, ok := api.UserIDFromContext(r.Context())
	if !ok {
		config.ErrorStatus("missing auth context", http.StatusUnauthorized, w, errors.New("no authenticated user"))
		return nil, false
	}
	user, err := udb.FindOne(context.Background(), bson.M{"_id": userID})
	if err != nil {
		config.ErrorStatus("failed to get user", http.StatusUnauthorized, w, err)
		return nil, false
	}
	return user, true
}

// CreateComplaintHandler files a new complaint. The evidence photo goes to
// Cloudinary with auto-tagging switched on; the returned tags feed category
// detection when the citizen did not pick one.
func (c Complaint) CreateComplaintHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := authedUser(c.UDB, w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		config.ErrorStatus("failed to parse multipart form", http.StatusBadRequest, w, err)
		return
	}

	description := r.FormValue("description")
	if description == "" {
		config.ErrorStatus("description is required", http.StatusBadRequest, w, errors.New("empty description"))
		return
	}

	var beforeImageURL string
	var autoTags []string
	if file, _, err := r.FormFile("image"); err == nil {
		defer file.Close()
		resp, err := c.Cloudinary.Upload.Upload(r.Context(), file, uploader.UploadParams{
			Folder:         "civicfix/complaints",
			Categorization: "google_tagging",
			AutoTagging:    0.6,
		})
		if err != nil {
			config.ErrorStatus("failed to upload image", http.StatusInternalServerError, w, err)
			return
		}
		beforeImageURL = resp.SecureURL
		autoTags = resp.Tags
	}

	category := r.FormValue("category")
	if !ValidCategory(category) {
		category = DetectCategory(description, autoTags)
	}

	now := nowDateTime()
	complaint := models.Complaint{
		ID:             primitive.NewObjectID(),
		User:           user.ID,
		Description:    description,
		Latitude:       r.FormValue("latitude"),
		Longitude:      r.FormValue("longitude"),
		City:           r.FormValue("city"),
		State:          r.FormValue("state"),
		Landmark:       r.FormValue("landmark"),
		BeforeImageURL: beforeImageURL,
		Category:       category,
		Status:         models.StatusNew,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := c.DB.InsertOne(context.Background(), complaint); err != nil {
		config.ErrorStatus("failed to create complaint", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":   "Complaint created successfully",
		"complaint": complaint,
	})
}

// MyComplaintsHandler returns the caller's complaints, newest first
func (c Complaint) MyComplaintsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := authedUser(c.UDB, w, r)
	if !ok {
		return
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	dbResp, err := c.DB.FindWithOwner(context.TODO(), bson.M{"user": user.ID}, opts)
	if err != nil {
		config.ErrorStatus("failed to get complaints", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.ComplaintDetails{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// AllComplaintsHandler returns every complaint for the triage dashboard,
// optionally narrowed by status, category, city or state. Admin only.
func (c Complaint) AllComplaintsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := authedUser(c.UDB, w, r)
	if !ok {
		return
	}
	if !user.IsAdmin {
		config.ErrorStatus("admin access required", http.StatusForbidden, w, errors.New("not an admin"))
		return
	}

	filter := bson.M{}
	if v := r.URL.Query().Get("status"); models.ValidStatus(v) {
		filter["status"] = v
	}
	if v := r.URL.Query().Get("category"); ValidCategory(v) {
		filter["category"] = v
	}
	if v := r.URL.Query().Get("city"); v != "" {
		filter["city"] = v
	}
	if v := r.URL.Query().Get("state"); v != "" {
		filter["state"] = v
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	dbResp, err := c.DB.FindWithOwner(context.TODO(), filter, opts)
	if err != nil {
		config.ErrorStatus("failed to get complaints", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.ComplaintDetails{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func (c Complaint) statusCounts(ctx context.Context, base bson.M) (map[string]int64, error) {
	counts := map[string]int64{}
	total, err := c.DB.CountDocuments(ctx, base)
	if err != nil {
		return nil, err
	}
	counts["total"] = total

	for key, status := range map[string]string{
		"new":        models.StatusNew,
		"inProgress": models.StatusInProgress,
		"resolved":   models.StatusResolved,
	} {
		filter := bson.M{"status": status}
		for k, v := range base {
			filter[k] = v
		}
		n, err := c.DB.CountDocuments(ctx, filter)
		if err != nil {
			return nil, err
		}
		counts[key] = n
	}
	return counts, nil
}

// MyStatsHandler returns the caller's complaint counts per status
func (c Complaint) MyStatsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := authedUser(c.UDB, w, r)
	if !ok {
		return
	}

	counts, err := c.statusCounts(context.TODO(), bson.M{"user": user.ID})
	if err != nil {
		config.ErrorStatus("failed to get complaint stats", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(counts)
}

// StatsHandler returns city-wide complaint counts per status. Admin only.
func (c Complaint) StatsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := authedUser(c.UDB, w, r)
	if !ok {
		return
	}
	if !user.IsAdmin {
		config.ErrorStatus("admin access required", http.StatusForbidden, w, errors.New("not an admin"))
		return
	}

	counts, err := c.statusCounts(context.TODO(), bson.M{})
	if err != nil {
		config.ErrorStatus("failed to get complaint stats", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(counts)
}

// searchFilter widens a filter with an escaped case-insensitive regex over
// the text columns; a well-formed hex search also matches on _id
func searchFilter(filter bson.M, search string) bson.M {
	if search == "" {
		return filter
	}
	re := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	or := []bson.M{
		{"description": re},
		{"category": re},
		{"city": re},
		{"state": re},
		{"landmark": re},
	}
	if oid, err := primitive.ObjectIDFromHex(search); err == nil {
		or = append(or, bson.M{"_id": oid})
	}
	filter["$or"] = or
	return filter
}

func (c Complaint) paginated(w http.ResponseWriter, r *http.Request, filter bson.M) {
	page := getPage(r)
	limit := getLimit(r)

	filter = searchFilter(filter, r.URL.Query().Get("search"))
	if v := r.URL.Query().Get("status"); models.ValidStatus(v) {
		filter["status"] = v
	}

	total, err := c.DB.CountDocuments(context.TODO(), filter)
	if err != nil {
		config.ErrorStatus("failed to count complaints", http.StatusInternalServerError, w, err)
		return
	}

	skip64 := int64(page * limit)
	limit64 := int64(limit)
	opts := &options.FindOptions{
		Sort:  bson.D{{Key: "createdAt", Value: -1}},
		Skip:  &skip64,
		Limit: &limit64,
	}
	dbResp, err := c.DB.FindWithOwner(context.TODO(), filter, opts)
	if err != nil {
		config.ErrorStatus("failed to get complaints", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.ComplaintDetails{}
	}

	pages := (total + limit64 - 1) / limit64
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"complaints": dbResp,
		"total":      total,
		"page":       page,
		"pages":      pages,
	})
}

// PaginatedComplaintsHandler pages through every complaint with search.
// Admin only.
func (c Complaint) PaginatedComplaintsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := authedUser(c.UDB, w, r)
	if !ok {
		return
	}
	if !user.IsAdmin {
		config.ErrorStatus("admin access required", http.StatusForbidden, w, errors.New("not an admin"))
		return
	}
	c.paginated(w, r, bson.M{})
}

// MyComplaintsPaginatedHandler pages through the caller's own complaints
func (c Complaint) MyComplaintsPaginatedHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := authedUser(c.UDB, w, r)
	if !ok {
		return
	}
	c.paginated(w, r, bson.M{"user": user.ID})
}

// ActiveChatsHandler lists the complaints that have chat traffic, most
// recently touched first. Admins see every active thread; citizens only the
// threads they are part of.
func (c Complaint) ActiveChatsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := authedUser(c.UDB, w, r)
	if !ok {
		return
	}

	msgFilter := bson.M{}
	if !user.IsAdmin {
		msgFilter = bson.M{"$or": []bson.M{
			{"fromUser": user.ID},
			{"toUser": user.ID},
		}}
	}

	ids, err := c.MDB.Distinct(context.TODO(), "complaintId", msgFilter)
	if err != nil {
		config.ErrorStatus("failed to get active chats", http.StatusInternalServerError, w, err)
		return
	}

	complaintIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, ok := id.(primitive.ObjectID); ok {
			complaintIDs = append(complaintIDs, oid)
		}
	}
	if len(complaintIDs) == 0 {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("[]"))
		return
	}

	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	dbResp, err := c.DB.FindWithOwner(context.TODO(), bson.M{"_id": bson.M{"$in": complaintIDs}}, opts)
	if err != nil {
		config.ErrorStatus("failed to get complaints", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.ComplaintDetails{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ComplaintByIDHandler returns a complaint with its owner populated. Citizens
// can only fetch their own.
func (c Complaint) ComplaintByIDHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := authedUser(c.UDB, w, r)
	if !ok {
		return
	}

	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["complaint_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := c.DB.FindOneWithOwner(context.Background(), cID)
	if err != nil {
		config.ErrorStatus("failed to get complaint by ID", http.StatusNotFound, w, err)
		return
	}
	if !user.IsAdmin && dbResp.User != user.ID {
		config.ErrorStatus("not allowed to view this complaint", http.StatusForbidden, w, errors.New("not the complaint owner"))
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"complaint": dbResp,
		"isAdmin":   user.IsAdmin,
	})
}

// UpdateStatusHandler moves a complaint through new -> in progress ->
// resolved. Resolving requires an after photo, either already on the
// complaint or supplied in the body; resolution emails the owner. Admin only.
func (c Complaint) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := authedUser(c.UDB, w, r)
	if !ok {
		return
	}
	if !user.IsAdmin {
		config.ErrorStatus("admin access required", http.StatusForbidden, w, errors.New("not an admin"))
		return
	}

	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["complaint_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var body struct {
		Status        string `json:"status"`
		AfterImageURL string `json:"afterImageUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if !models.ValidStatus(body.Status) {
		config.ErrorStatus("invalid status", http.StatusBadRequest, w, errors.New("unknown status value"))
		return
	}

	complaint, err := c.DB.FindOne(context.Background(), bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to get complaint by ID", http.StatusNotFound, w, err)
		return
	}

	set := bson.M{"status": body.Status, "updatedAt": nowDateTime()}
	if body.Status == models.StatusResolved {
		if body.AfterImageURL != "" {
			set["afterImageUrl"] = body.AfterImageURL
			complaint.AfterImageURL = body.AfterImageURL
		}
		if complaint.AfterImageURL == "" {
			config.ErrorStatus("an after image is required to resolve a complaint", http.StatusBadRequest, w, errors.New("missing after image"))
			return
		}
	}

	if _, err := c.DB.UpdateOne(context.Background(), bson.M{"_id": cID}, bson.M{"$set": set}); err != nil {
		config.ErrorStatus("failed to update complaint", http.StatusInternalServerError, w, err)
		return
	}

	if body.Status == models.StatusResolved {
		go c.sendResolvedEmail(complaint)
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Complaint updated successfully",
	})
}

// UpdateComplaintHandler uploads the after photo for a complaint, which
// resolves it in the same stroke. Admin only.
func (c Complaint) UpdateComplaintHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := authedUser(c.UDB, w, r)
	if !ok {
		return
	}
	if !user.IsAdmin {
		config.ErrorStatus("admin access required", http.StatusForbidden, w, errors.New("not an admin"))
		return
	}

	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["complaint_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	complaint, err := c.DB.FindOne(context.Background(), bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to get complaint by ID", http.StatusNotFound, w, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		config.ErrorStatus("failed to parse multipart form", http.StatusBadRequest, w, err)
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		config.ErrorStatus("an after image file is required", http.StatusBadRequest, w, err)
		return
	}
	defer file.Close()

	resp, err := c.Cloudinary.Upload.Upload(r.Context(), file, uploader.UploadParams{
		Folder: "civicfix/complaints/after",
	})
	if err != nil {
		config.ErrorStatus("failed to upload image", http.StatusInternalServerError, w, err)
		return
	}

	update := bson.M{"$set": bson.M{
		"afterImageUrl": resp.SecureURL,
		"status":        models.StatusResolved,
		"updatedAt":     nowDateTime(),
	}}
	if _, err := c.DB.UpdateOne(context.Background(), bson.M{"_id": cID}, update); err != nil {
		config.ErrorStatus("failed to update complaint", http.StatusInternalServerError, w, err)
		return
	}

	complaint.AfterImageURL = resp.SecureURL
	go c.sendResolvedEmail(complaint)

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":       "Complaint resolved successfully",
		"afterImageUrl": resp.SecureURL,
	})
}

// RateComplaintHandler records the owner's 1-5 rating of a resolution
func (c Complaint) RateComplaintHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := authedUser(c.UDB, w, r)
	if !ok {
		return
	}

	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["complaint_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var body struct {
		Rating int `json:"rating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if body.Rating < 1 || body.Rating > 5 {
		config.ErrorStatus("rating must be between 1 and 5", http.StatusBadRequest, w, errors.New("rating out of range"))
		return
	}

	complaint, err := c.DB.FindOne(context.Background(), bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to get complaint by ID", http.StatusNotFound, w, err)
		return
	}
	if complaint.User != user.ID {
		config.ErrorStatus("only the complaint owner can rate it", http.StatusForbidden, w, errors.New("not the complaint owner"))
		return
	}
	if complaint.Status != models.StatusResolved {
		config.ErrorStatus("only resolved complaints can be rated", http.StatusBadRequest, w, errors.New("complaint not resolved"))
		return
	}

	update := bson.M{"$set": bson.M{"rating": body.Rating, "updatedAt": nowDateTime()}}
	if _, err := c.DB.UpdateOne(context.Background(), bson.M{"_id": cID}, update); err != nil {
		config.ErrorStatus("failed to update complaint", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Rating saved",
	})
}

func (c Complaint) sendResolvedEmail(complaint *models.Complaint) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	owner, err := c.UDB.FindOne(ctx, bson.M{"_id": complaint.User})
	if err != nil || owner.Email == "" {
		zap.S().Warnw("cannot email resolution, owner unknown", "complaintId", complaint.ID.Hex())
		return
	}

	subject := "Your complaint has been resolved - CivicFix"
	html := templates.RenderComplaintResolvedEmail(owner.FullName, complaint.Description, complaint.AfterImageURL)
	plain := "Good news! The issue you reported has been resolved."
	if err := sendEmail(owner.Email, owner.FullName, subject, html, plain); err != nil {
		zap.S().Errorw("failed to send resolution email", "complaintId", complaint.ID.Hex(), "error", err)
	}
}
