// Package domain defines the persistence models for the car inventory:
// cars, their maintenance history, and user accounts. These types are mapped
// with GORM and form the core data layer of the application.
package domain

import (
	"time"
)

// Car is a single vehicle listing.
//
// Numeric attributes are pointers so that "not provided" stays distinct from
// zero all the way from the form payload to the comparison matrix.
// Slice and nested-object attributes are stored as JSON columns.
//
// Fields:
//   - ID: stable UUID primary key (char(36)), assigned on create, immutable.
//   - Title / Description: required, non-blank.
//   - Tags: ordered labels; order is kept for display.
//   - Year: model year, 1900..currentYear+1.
//   - Price / Mileage: non-negative when present.
//   - Features: loosely catalogued equipment strings.
//   - Specifications: optional performance figures.
//   - Location: optional geo position; coordinates are always a finite pair.
//   - Images: storage references in upload order.
//   - CreatedAt: set once on create; UpdatedAt: maintained by GORM.
type Car struct {
	ID          string   `json:"id"          gorm:"type:char(36);primaryKey"`
	Title       string   `json:"title"       gorm:"type:varchar(255);not null" validate:"required,notblank"`
	Description string   `json:"description" gorm:"type:text;not null"         validate:"required,notblank"`
	Tags        []string `json:"tags"        gorm:"serializer:json"`

	Make         string `json:"make,omitempty"         gorm:"type:varchar(64);index:idx_cars_make"`
	Model        string `json:"model,omitempty"        gorm:"type:varchar(64)"`
	BodyType     string `json:"bodyType,omitempty"     gorm:"type:varchar(32)"`
	EngineType   string `json:"engineType,omitempty"   gorm:"type:varchar(64)"`
	Transmission string `json:"transmission,omitempty" gorm:"type:varchar(32)"`
	FuelType     string `json:"fuelType,omitempty"     gorm:"type:varchar(32)"`
	Color        string `json:"color,omitempty"        gorm:"type:varchar(32)"`

	Year    *int     `json:"year,omitempty"    validate:"omitempty,modelyear"`
	Price   *float64 `json:"price,omitempty"   validate:"omitempty,gte=0"`
	Mileage *int     `json:"mileage,omitempty" validate:"omitempty,gte=0"`

	Features       []string       `json:"features"       gorm:"serializer:json"`
	Specifications Specifications `json:"specifications" gorm:"serializer:json"`
	Location       *Location      `json:"location,omitempty" gorm:"serializer:json"`
	Images         []string       `json:"images"         gorm:"serializer:json"`

	CreatedAt time.Time `json:"createdAt" gorm:"index:idx_cars_created"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the database table name for Car.
func (Car) TableName() string { return "cars" }

// Specifications holds optional performance figures. Absent values are nil,
// never zero.
type Specifications struct {
	Engine       string   `json:"engine,omitempty"`
	Horsepower   *float64 `json:"horsepower,omitempty"   validate:"omitempty,gte=0"`
	Torque       *float64 `json:"torque,omitempty"       validate:"omitempty,gte=0"`
	Acceleration *float64 `json:"acceleration,omitempty" validate:"omitempty,gte=0"`
	TopSpeed     *float64 `json:"topSpeed,omitempty"     validate:"omitempty,gte=0"`
	FuelEconomy  *float64 `json:"fuelEconomy,omitempty"  validate:"omitempty,gte=0"`
}

// IsZero reports whether no specification value is set.
func (s Specifications) IsZero() bool {
	return s.Engine == "" && s.Horsepower == nil && s.Torque == nil &&
		s.Acceleration == nil && s.TopSpeed == nil && s.FuelEconomy == nil
}

// Location is a geo position as [latitude, longitude] plus a free-text address.
type Location struct {
	Coordinates [2]float64 `json:"coordinates"`
	Address     string     `json:"address,omitempty"`
}

// MaintenanceRecord is one service entry in a car's maintenance history.
// Records are cascade-deleted with their car.
type MaintenanceRecord struct {
	ID              string    `json:"id"               gorm:"type:char(36);primaryKey"`
	CarID           string    `json:"carId"            gorm:"type:char(36);not null;index:idx_car_maintenance,priority:1"`
	Title           string    `json:"title"            gorm:"type:varchar(255);not null"`
	Date            time.Time `json:"date"             gorm:"not null;index:idx_car_maintenance,priority:2"`
	Mileage         *int      `json:"mileage,omitempty"`
	Cost            *float64  `json:"cost,omitempty"`
	ServiceType     string    `json:"serviceType"      gorm:"type:varchar(16);not null;check:service_type IN ('maintenance','repair','inspection','upgrade','other')"`
	Description     string    `json:"description,omitempty"     gorm:"type:text"`
	PartsReplaced   []string  `json:"partsReplaced,omitempty"   gorm:"serializer:json"`
	ServiceProvider string    `json:"serviceProvider,omitempty" gorm:"type:varchar(255)"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	Car Car `json:"-" gorm:"foreignKey:CarID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for MaintenanceRecord.
func (MaintenanceRecord) TableName() string { return "maintenance_records" }

// User is an account that can sign in and own a comparison selection.
type User struct {
	ID           string    `json:"id"    gorm:"type:char(36);primaryKey"`
	Email        string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	Name         string    `json:"name"  gorm:"type:varchar(255)"`
	PasswordHash string    `json:"-"     gorm:"type:varchar(100);not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }
