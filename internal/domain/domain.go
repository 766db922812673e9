package domain

import (
	"github.com/kon-rad/juego-sub000/internal/domain/chat"
	"github.com/kon-rad/juego-sub000/internal/domain/game"
	"github.com/kon-rad/juego-sub000/internal/domain/teacher"
	"github.com/kon-rad/juego-sub000/internal/domain/voice"
)

const (
	DefaultWorldName   = game.DefaultWorldName
	DefaultWorldWidth  = game.DefaultWorldWidth
	DefaultWorldHeight = game.DefaultWorldHeight

	SeparationRadius = teacher.SeparationRadius

	CallInitiating = voice.CallInitiating
	CallRinging    = voice.CallRinging
	CallInProgress = voice.CallInProgress
	CallEnded      = voice.CallEnded
	CallFailed     = voice.CallFailed
)

type Player = game.Player
type World = game.World
type Obstacle = game.Obstacle
type Point = game.Point

type Teacher = teacher.Teacher
type Persona = teacher.Persona

type AICharacter = voice.AICharacter
type VapiCall = voice.VapiCall
type CallStatus = voice.CallStatus

type Chat = chat.Chat
type ChatMessage = chat.Message
type ParticipantInfo = chat.ParticipantInfo
