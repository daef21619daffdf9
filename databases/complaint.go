package databases

// go generate: mockery --name ComplaintDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/civicfix/complaint-api/models"
)

const complaintName = "complaints"

// ComplaintDatabase contains the methods to use with the complaint database
type ComplaintDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Complaint, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Complaint, error)
	FindWithOwner(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ComplaintDetails, error)
	FindOneWithOwner(ctx context.Context, id interface{}) (*models.ComplaintDetails, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, complaint models.Complaint) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

type complaintDatabase struct {
	db DatabaseHelper
}

// NewComplaintDatabase initializes a new instance of complaint database with the provided db connection
func NewComplaintDatabase(db DatabaseHelper) ComplaintDatabase {
	return &complaintDatabase{
		db: db,
	}
}

func (c *complaintDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Complaint, error) {
	complaint := &models.Complaint{}
	err := c.db.Collection(complaintName).FindOne(ctx, filter, opts...).Decode(complaint)
	if err != nil {
		return nil, err
	}
	return complaint, nil
}

func (c *complaintDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Complaint, error) {
	var complaints []models.Complaint
	curr, err := c.db.Collection(complaintName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &complaints)
	if err != nil {
		return nil, err
	}
	return complaints, nil
}

// ownerLookupStages joins the owning user onto each complaint, trimming the
// user document down to the fields the dashboard renders
func ownerLookupStages() []bson.M {
	return []bson.M{
		{"$lookup": bson.M{
			"from":         userName,
			"localField":   "user",
			"foreignField": "_id",
			"as":           "owner",
		}},
		{"$unwind": bson.M{"path": "$owner", "preserveNullAndEmptyArrays": true}},
		{"$project": bson.M{
			"owner.password":             0,
			"owner.resetPasswordToken":   0,
			"owner.resetPasswordExpires": 0,
		}},
	}
}

func (c *complaintDatabase) FindWithOwner(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ComplaintDetails, error) {
	pipeline := []bson.M{{"$match": filter}}
	for _, o := range opts {
		if o.Sort != nil {
			pipeline = append(pipeline, bson.M{"$sort": o.Sort})
		}
		if o.Skip != nil {
			pipeline = append(pipeline, bson.M{"$skip": *o.Skip})
		}
		if o.Limit != nil {
			pipeline = append(pipeline, bson.M{"$limit": *o.Limit})
		}
	}
	pipeline = append(pipeline, ownerLookupStages()...)

	curr, err := c.db.Collection(complaintName).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)

	var complaints []models.ComplaintDetails
	err = curr.All(ctx, &complaints)
	if err != nil {
		return nil, err
	}
	return complaints, nil
}

func (c *complaintDatabase) FindOneWithOwner(ctx context.Context, id interface{}) (*models.ComplaintDetails, error) {
	pipeline := append([]bson.M{{"$match": bson.M{"_id": id}}}, ownerLookupStages()...)
	curr, err := c.db.Collection(complaintName).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)

	var complaints []models.ComplaintDetails
	err = curr.All(ctx, &complaints)
	if err != nil {
		return nil, err
	}
	if len(complaints) == 0 {
		return nil, mongo.ErrNoDocuments
	}
	return &complaints[0], nil
}

func (c *complaintDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(complaintName).CountDocuments(ctx, filter, opts...)
}

func (c *complaintDatabase) InsertOne(ctx context.Context, complaint models.Complaint) (InsertOneResultHelper, error) {
	return c.db.Collection(complaintName).InsertOne(ctx, complaint)
}

func (c *complaintDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return c.db.Collection(complaintName).UpdateOne(ctx, filter, update, opts...)
}
