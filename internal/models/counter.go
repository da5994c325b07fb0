package models

// Counter is an atomically incremented sequence document. One counter
// document exists per sequence name (e.g. the invoice number sequence).
type Counter struct {
	Name string `bson:"_id" json:"name"`
	Seq  int64  `bson:"seq" json:"seq"`
}
