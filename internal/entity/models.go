package entity

// Models lists every persisted entity in dependency order for AutoMigrate.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&Post{},
		&Share{},
		&Comment{},
		&Reaction{},
		&Notification{},
		&Chatroom{},
		&Message{},
	}
}
