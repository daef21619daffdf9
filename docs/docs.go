// Package docs CivicFix Complaint API.
//
// Documentation of the CivicFix municipal complaint API.
//
//	Schemes: https
//	BasePath: /
//	Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
//	Security:
//	- bearer
//
//	SecurityDefinitions:
//	bearer:
//	  type: apiKey
//	  name: Authorization
//	  in: header
//
// swagger:meta
package docs

import (
	"github.com/civicfix/complaint-api/models"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route GET /api/v1/complaint/{complaint_id} complaints complaintByID
// Gets a single complaint by ID with its owner populated.
// responses:
//   200: complaintByIDResponse

// Shows a single complaint by the given {ID}
// swagger:response complaintByIDResponse
type complaintByIDResponseWrapper struct {
	// in:body
	Body models.ComplaintDetails
}

// swagger:route GET /api/v1/messages/{complaint_id} messages messagesByComplaintID
// Gets the chat history for a complaint, oldest first.
// responses:
//   200: messagesByComplaintIDResponse

// Shows the messages of the given complaint with sender and recipient populated
// swagger:response messagesByComplaintIDResponse
type messagesByComplaintIDResponseWrapper struct {
	// in:body
	Body []models.MessageDetails
}
