package catalog

import (
	"time"

	"nft-ticket-onchain/model"
)

// SeedDemoEvents はデモ用のイベントを登録する
func (s *Store) SeedDemoEvents() {
	now := s.now()
	day := int64(secondsPerDay)
	base := now.Unix()

	demo := []model.Event{
		{
			ID:           "1",
			EventName:    "Summer Music Festival",
			Description:  "The biggest music festival of the year featuring top artists",
			EventDate:    base + day*30,
			Price:        model.MustParseETH("0.005"),
			ReleaseDays:  7,
			Royalty:      500,
			Category:     "music",
			Venue:        "Central Park",
			Location:     "New York, NY",
			TotalTickets: 1000,
			SoldTickets:  630,
			Status:       model.EventActive,
			CreatedAt:    now.Add(-72 * time.Hour).Unix(),
		},
		{
			ID:           "2",
			EventName:    "Tech Conference",
			Description:  "Annual technology conference with industry leaders",
			EventDate:    base + day*45,
			Price:        model.MustParseETH("0.01"),
			ReleaseDays:  14,
			Royalty:      750,
			Category:     "conference",
			Venue:        "Convention Center",
			Location:     "San Francisco, CA",
			TotalTickets: 500,
			SoldTickets:  350,
			Status:       model.EventUpcoming,
			CreatedAt:    now.Add(-48 * time.Hour).Unix(),
		},
		{
			ID:           "3",
			EventName:    "Championship Game",
			Description:  "Final championship game of the season",
			EventDate:    base + day*15,
			Price:        model.MustParseETH("0.0075"),
			ReleaseDays:  7,
			Royalty:      600,
			Category:     "sports",
			Venue:        "Stadium Arena",
			Location:     "Los Angeles, CA",
			TotalTickets: 5000,
			SoldTickets:  4800,
			Status:       model.EventActive,
			CreatedAt:    now.Add(-24 * time.Hour).Unix(),
		},
	}
	for _, e := range demo {
		s.SaveEvent(e)
	}
}
