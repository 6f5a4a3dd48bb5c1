package http

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
}

type StatusResponse struct {
	Message string `json:"message"`
}

type CreateGroupRequest struct {
	Name           string  `json:"name" validate:"required,max=200"`
	ParticipantIDs []int64 `json:"participant_ids" validate:"required,min=1,dive,gt=0"`
}

type RoomItem struct {
	ID               string    `json:"id"`
	Name             *string   `json:"name"`
	IsGroup          bool      `json:"is_group"`
	CreatedAt        time.Time `json:"created_at"`
	ParticipantCount int64     `json:"participant_count"`
	UnreadCount      int64     `json:"unread_count"`
}

type RoomsListResponse struct {
	Items []RoomItem `json:"items"`
}

type MessageItem struct {
	ID             string    `json:"id"`
	RoomID         string    `json:"room_id"`
	SenderID       int64     `json:"sender_id"`
	Content        string    `json:"content"`
	MessageType    string    `json:"message_type"`
	CreatedAt      time.Time `json:"created_at"`
	IsRead         bool      `json:"is_read"`
	SenderUsername *string   `json:"sender_username,omitempty"`
}

type MessagesResponse struct {
	Items []MessageItem `json:"items"`
}

type ParticipantItem struct {
	RoomID   string    `json:"room_id"`
	UserID   int64     `json:"user_id"`
	IsAdmin  bool      `json:"is_admin"`
	JoinedAt time.Time `json:"joined_at"`
	Username *string   `json:"username,omitempty"`
	Email    string    `json:"email"`
}

type ParticipantsResponse struct {
	Items []ParticipantItem `json:"items"`
}

type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}

type OnlineUserItem struct {
	UserID      int64     `json:"user_id"`
	ConnectedAt time.Time `json:"connected_at"`
}

type OnlineUsersResponse struct {
	OnlineUsers []OnlineUserItem `json:"online_users"`
}
