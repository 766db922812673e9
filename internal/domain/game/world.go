package game

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

const (
	DefaultWorldName   = "default"
	DefaultWorldWidth  = 2000
	DefaultWorldHeight = 2000
)

type Obstacle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type World struct {
	Name      string         `gorm:"primaryKey;column:name" json:"name"`
	Width     float64        `gorm:"not null;column:width" json:"width"`
	Height    float64        `gorm:"not null;column:height" json:"height"`
	Obstacles datatypes.JSON `gorm:"column:obstacles" json:"obstacles"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (World) TableName() string { return "world" }

func (w *World) ObstacleList() ([]Obstacle, error) {
	if w == nil || len(w.Obstacles) == 0 {
		return nil, nil
	}
	var out []Obstacle
	if err := json.Unmarshal(w.Obstacles, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (w *World) SetObstacles(obs []Obstacle) error {
	if obs == nil {
		obs = []Obstacle{}
	}
	raw, err := json.Marshal(obs)
	if err != nil {
		return err
	}
	w.Obstacles = datatypes.JSON(raw)
	return nil
}

// Point is a world coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
