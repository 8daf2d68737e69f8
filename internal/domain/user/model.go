package user

import "time"

type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false"`
	Email     *string   `gorm:"type:text"`
	Name      string    `gorm:"type:text;not null"`
	Role      string    `gorm:"type:varchar(16);not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// Contact is what notifications need to reach a user.
type Contact struct {
	UserID int64
	Email  string
	Name   string
}

func (u User) Contact() Contact {
	contact := Contact{UserID: u.ID, Name: u.Name}
	if u.Email != nil {
		contact.Email = *u.Email
	}
	return contact
}
