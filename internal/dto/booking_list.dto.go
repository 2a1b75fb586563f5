package dto

import (
	"time"

	"github.com/BruksfildServices01/massage-booking/internal/models"
)

type BookingListDTO struct {
	ID            uint      `json:"id"`
	StudioID      uint      `json:"studioId"`
	PreferredDate string    `json:"preferredDate"`
	PreferredTime string    `json:"preferredTime"`
	Status        string    `json:"status"`
	CustomerName  string    `json:"customerName"`
	ServiceName   string    `json:"serviceName,omitempty"`
	HasMessage    bool      `json:"hasMessage"`
	CreatedAt     time.Time `json:"createdAt"`
}

func BookingList(list []models.Booking) []BookingListDTO {
	out := make([]BookingListDTO, 0, len(list))
	for _, b := range list {
		d := BookingListDTO{
			ID:            b.ID,
			StudioID:      b.StudioID,
			PreferredDate: b.PreferredDate,
			PreferredTime: b.PreferredTime,
			Status:        b.Status,
			CustomerName:  b.CustomerName,
			HasMessage:    b.Message != "",
			CreatedAt:     b.CreatedAt,
		}
		if b.Service != nil {
			d.ServiceName = b.Service.Name
		}
		out = append(out, d)
	}
	return out
}
