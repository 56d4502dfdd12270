package member

// Member is a renter as known to the external membership source.
type Member struct {
	ID          string
	Active      bool
	RentalLimit int // max concurrent open rentals
}
