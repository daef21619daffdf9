package databases

// go generate: mockery --name OTPDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/civicfix/complaint-api/models"
)

const otpName = "otps"

// OTPDatabase contains the methods to use with the otp database
type OTPDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.OTP, error)
	InsertOne(ctx context.Context, otp models.OTP) (InsertOneResultHelper, error)
	DeleteMany(ctx context.Context, filter interface{}) (int64, error)
}

type otpDatabase struct {
	db DatabaseHelper
}

// NewOTPDatabase initializes a new instance of otp database with the provided db connection
func NewOTPDatabase(db DatabaseHelper) OTPDatabase {
	return &otpDatabase{
		db: db,
	}
}

func (o *otpDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.OTP, error) {
	otp := &models.OTP{}
	err := o.db.Collection(otpName).FindOne(ctx, filter, opts...).Decode(otp)
	if err != nil {
		return nil, err
	}
	return otp, nil
}

func (o *otpDatabase) InsertOne(ctx context.Context, otp models.OTP) (InsertOneResultHelper, error) {
	return o.db.Collection(otpName).InsertOne(ctx, otp)
}

func (o *otpDatabase) DeleteMany(ctx context.Context, filter interface{}) (int64, error) {
	return o.db.Collection(otpName).DeleteMany(ctx, filter)
}
