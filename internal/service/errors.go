package service

import "errors"

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomFull      = errors.New("room is at capacity")
	ErrWrongPassword = errors.New("incorrect room password")
	ErrBanned        = errors.New("user is banned")
	ErrChannelDenied = errors.New("channel access denied")
)
