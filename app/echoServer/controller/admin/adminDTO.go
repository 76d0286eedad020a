package admin

type StatusUpdateReq struct {
	Status string `json:"status" validate:"required,oneof=pending processing shipped out_for_delivery delivered cancelled"`
}
