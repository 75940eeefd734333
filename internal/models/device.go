package models

import "time"

// Device is a registered physical device. A device is bound to at most one trainee; admins
// may share devices.
type Device struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	MacAddress string    `db:"mac_address" json:"macAddress"`
	TraineeID  *string   `db:"trainee_id" json:"traineeId"`
	AdminID    *string   `db:"admin_id" json:"adminId,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}
