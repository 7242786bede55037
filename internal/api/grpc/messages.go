package grpc

import (
	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/service"
)

type ListQueueRequest struct {
	Statuses  []string `json:"statuses,omitempty"`
	Search    string   `json:"search,omitempty"`
	SortBy    string   `json:"sort_by,omitempty"`
	Ascending bool     `json:"ascending,omitempty"`
	Limit     int32    `json:"limit,omitempty"`
	Offset    int32    `json:"offset,omitempty"`
}

type ListQueueResponse struct {
	Items []domain.ReviewItem `json:"items"`
	Total int32               `json:"total"`
}

type DecisionRequest struct {
	QueueID int32 `json:"queue_id"`
}

type DecisionResponse struct {
	Item                  *domain.ReviewItem `json:"item"`
	Changed               bool               `json:"changed"`
	AccountID             int32              `json:"account_id,omitempty"`
	NotificationDelivered bool               `json:"notification_delivered"`
	NotificationQueued    bool               `json:"notification_queued"`
	Warnings              []string           `json:"warnings,omitempty"`
}

type DeleteQueueItemsRequest struct {
	IDs []int32 `json:"ids"`
}

type DeleteAlumniRequest struct {
	AlumniIDs []string `json:"alumni_ids"`
}

type DeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

type GetStatsRequest struct{}

type GetStatsResponse struct {
	Stats domain.ReviewStats `json:"stats"`
}

type RepairIntakesRequest struct {
	OlderThanSeconds int64 `json:"older_than_seconds"`
}

type RepairIntakesResponse struct {
	Report service.RepairReport `json:"report"`
}

type ListEmailLogsRequest struct {
	Limit  int32 `json:"limit,omitempty"`
	Offset int32 `json:"offset,omitempty"`
}

type ListEmailLogsResponse struct {
	Logs  []domain.EmailLog `json:"logs"`
	Total int32             `json:"total"`
}

func MapDecisionResult(r *service.DecisionResult) *DecisionResponse {
	if r == nil {
		return nil
	}
	resp := &DecisionResponse{
		Item:     r.Item,
		Changed:  r.Changed,
		Warnings: r.Warnings,
	}
	if r.Account != nil {
		resp.AccountID = r.Account.ID
	}
	if r.Notification != nil {
		resp.NotificationDelivered = r.Notification.Delivered
		resp.NotificationQueued = r.Notification.Queued
	}
	return resp
}

func mapStatuses(in []string) []domain.ReviewStatus {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.ReviewStatus, 0, len(in))
	for _, s := range in {
		out = append(out, domain.ReviewStatus(s))
	}
	return out
}
