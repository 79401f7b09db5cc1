package entities

type CreateSlotRequest struct {
	SlotNumber string `json:"slot_number"`
	Level      string `json:"level"`
}
