package booking

// Slot is the exact (studio, date, time) triple capacity is counted on.
// Service duration is not taken into account.
type Slot struct {
	StudioID uint
	Date     string
	Time     string
}

func IsFull(confirmed int64, capacity int) bool {
	return confirmed >= int64(capacity)
}
