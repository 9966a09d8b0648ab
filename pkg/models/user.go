package models

import (
	"time"

	"gorm.io/gorm"
)

// Address holds the shipping address fields collected at registration.
type Address struct {
	Country     string `gorm:"type:varchar(56)" json:"country"`
	DialCode    string `gorm:"type:varchar(8)" json:"dial_code"`
	Mobile      string `gorm:"type:varchar(20)" json:"mobile"`
	Governorate string `gorm:"type:varchar(100)" json:"governorate"`
	District    string `gorm:"type:varchar(100)" json:"district"`
	Street      string `gorm:"type:varchar(255)" json:"street"`
	Building    string `gorm:"type:varchar(50)" json:"building"`
	Floor       string `gorm:"type:varchar(20)" json:"floor"`
	Apartment   string `gorm:"type:varchar(20)" json:"apartment"`
	Landmark    string `gorm:"type:varchar(255)" json:"landmark"`
}

type User struct {
	ID          string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	FirebaseUID string         `gorm:"type:varchar(128);uniqueIndex;not null" json:"firebase_uid"`
	FirstName   string         `gorm:"type:varchar(100)" json:"first_name"`
	LastName    string         `gorm:"type:varchar(100)" json:"last_name"`
	Email       string         `gorm:"type:varchar(100);uniqueIndex" json:"email"`
	Address     Address        `gorm:"embedded" json:"address"`
	IsAdmin     bool           `gorm:"default:false" json:"is_admin"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}
