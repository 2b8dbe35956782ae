package dto

type ActivateRequest struct {
	ID string `validate:"required,max=191"`
}
