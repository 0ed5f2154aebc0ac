package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Notebook struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId         uuid.UUID      `gorm:"type:uuid;not null;index"`
	Name           string         `gorm:"type:varchar(255);not null"`
	SelectedBooks  datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"`
	SelectedGenres datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"`
	MemorySummary  string         `gorm:"type:text"`
	KeyFacts       datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (Notebook) TableName() string {
	return "notebooks"
}
