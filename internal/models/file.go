package models

// TrainingFile mirrors an uploaded file record on the vendor side.
type TrainingFile struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	Purpose   string `json:"purpose"`
	Bytes     int64  `json:"bytes"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}
