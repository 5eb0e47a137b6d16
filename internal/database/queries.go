package database

import (
	"database/sql"
	"fmt"
	"strings"
)

// rewriteImageURL prefixes imgHost onto stored image paths that are not
// already absolute URLs. Null columns stay nil.
func rewriteImageURL(imgHost string, img sql.NullString) *string {
	if !img.Valid {
		return nil
	}
	url := img.String
	if !strings.Contains(url, "http") {
		url = imgHost + url
	}
	return &url
}

func (db *PgChatRepository) LoadRooms() (map[int64][]int64, error) {
	rows, err := db.conn.Query(
		"SELECT chat_room_id, user_id FROM user_chatroom_map",
	)
	if err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}
	defer rows.Close()

	result := make(map[int64][]int64)
	seen := make(map[int64]map[int64]struct{})
	for rows.Next() {
		var roomId, userId int64
		if err := rows.Scan(&roomId, &userId); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		if seen[roomId] == nil {
			seen[roomId] = make(map[int64]struct{})
			result[roomId] = nil
		}
		// a user can have several membership rows per room
		if _, ok := seen[roomId][userId]; ok {
			continue
		}
		seen[roomId][userId] = struct{}{}
		result[roomId] = append(result[roomId], userId)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return result, nil
}

func (db *PgChatRepository) GetRoom(roomId int64) (Room, error) {
	row := db.conn.QueryRow(
		"SELECT id, room_name, description, room_type, master_user_id FROM chat_rooms "+
			"WHERE id = $1 LIMIT 1",
		roomId,
	)

	var (
		room        Room
		name        sql.NullString
		description sql.NullString
	)
	err := row.Scan(
		&room.Id,
		&name,
		&description,
		&room.RoomType,
		&room.MasterUserId,
	)
	if err != nil {
		return Room{}, err
	}

	if name.Valid {
		room.RoomName = &name.String
	}
	if description.Valid {
		room.Description = &description.String
	}

	return room, nil
}

func (db *PgChatRepository) InsertRoom(name, description *string, roomType string, masterId int64) (int64, error) {
	var (
		row *sql.Row
	)
	if roomType == "NORMAL" {
		// NORMAL rooms carry no metadata; the schema defaults cover
		// every column
		row = db.conn.QueryRow("INSERT INTO chat_rooms DEFAULT VALUES RETURNING id")
	} else {
		row = db.conn.QueryRow(
			"INSERT INTO chat_rooms (room_name, description, room_type, master_user_id) "+
				"VALUES ($1, $2, $3, $4) RETURNING id",
			name,
			description,
			roomType,
			masterId,
		)
	}

	var id int64
	err := row.Scan(&id)
	return id, err
}

func (db *PgChatRepository) UpdateRoomName(roomId int64, name string) error {
	_, err := db.conn.Exec(
		"UPDATE chat_rooms SET room_name = $2 WHERE id = $1",
		roomId,
		name,
	)
	return err
}

func (db *PgChatRepository) UpdateRoomDescription(roomId int64, description string) error {
	_, err := db.conn.Exec(
		"UPDATE chat_rooms SET description = $2 WHERE id = $1",
		roomId,
		description,
	)
	return err
}

func (db *PgChatRepository) DeleteRoom(roomId int64) error {
	_, err := db.conn.Exec(
		"DELETE FROM chat_rooms WHERE id = $1",
		roomId,
	)
	return err
}

func (db *PgChatRepository) ClearMaster(roomId int64) error {
	_, err := db.conn.Exec(
		"UPDATE chat_rooms SET master_user_id = 0 WHERE id = $1",
		roomId,
	)
	return err
}

func (db *PgChatRepository) InsertMembership(roomId, userId int64, enteredAt string) error {
	_, err := db.conn.Exec(
		"INSERT INTO user_chatroom_map (chat_room_id, user_id, entered_at) VALUES ($1, $2, $3)",
		roomId,
		userId,
		enteredAt,
	)
	return err
}

func (db *PgChatRepository) ExitMembership(roomId, userId int64, exitedAt string) error {
	// close only the latest open membership row for the pair
	_, err := db.conn.Exec(
		"UPDATE user_chatroom_map SET exited_at = $1 WHERE id = ("+
			"SELECT id FROM user_chatroom_map "+
			"WHERE user_id = $2 AND chat_room_id = $3 AND exited_at IS NULL "+
			"ORDER BY entered_at DESC LIMIT 1)",
		exitedAt,
		userId,
		roomId,
	)
	return err
}

func (db *PgChatRepository) GetMembers(roomId int64) ([]Member, error) {
	query := `
		SELECT u.id, u.nickname, u.profile_image, ucm.exited_at
		FROM user_chatroom_map ucm
		JOIN users u ON ucm.user_id = u.id
		WHERE ucm.chat_room_id = $1
		AND ucm.entered_at = (
			SELECT MAX(entered_at)
			FROM user_chatroom_map
			WHERE chat_room_id = ucm.chat_room_id AND user_id = ucm.user_id
		)
		ORDER BY u.id`

	rows, err := db.conn.Query(query, roomId)
	if err != nil {
		return nil, fmt.Errorf("get members: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var (
			member   Member
			img      sql.NullString
			exitedAt sql.NullTime
		)
		if err := rows.Scan(&member.UserId, &member.Nickname, &img, &exitedAt); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		member.ProfileImage = rewriteImageURL(db.imgHost, img)
		member.IsExited = exitedAt.Valid
		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return members, nil
}

func (db *PgChatRepository) GetUser(userId int64) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, nickname, profile_image FROM users WHERE id = $1 LIMIT 1",
		userId,
	)

	var (
		user User
		img  sql.NullString
	)
	if err := row.Scan(&user.Id, &user.Nickname, &img); err != nil {
		return User{}, err
	}

	user.ProfileImage = rewriteImageURL(db.imgHost, img)
	return user, nil
}

func (db *PgChatRepository) GetJoinedRoomIds(userId int64) ([]int64, error) {
	rows, err := db.conn.Query(
		"SELECT DISTINCT chat_room_id FROM user_chatroom_map WHERE user_id = $1",
		userId,
	)
	if err != nil {
		return nil, fmt.Errorf("get joined rooms: %w", err)
	}
	defer rows.Close()

	var roomIds []int64
	for rows.Next() {
		var roomId int64
		if err := rows.Scan(&roomId); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		roomIds = append(roomIds, roomId)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return roomIds, nil
}

func (db *PgChatRepository) RoomHasMessages(roomId int64) (bool, error) {
	row := db.conn.QueryRow(
		"SELECT COUNT(*) FROM messages WHERE chat_room_id = $1 AND sender_id <> 0",
		roomId,
	)

	var count int64
	if err := row.Scan(&count); err != nil {
		return false, err
	}

	return count > 0, nil
}

func (db *PgChatRepository) InsertMessage(msg Message) (int64, error) {
	row := db.conn.QueryRow(
		"INSERT INTO messages (chat_room_id, sender_id, content, type, sended_at) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING id",
		msg.RoomId,
		msg.SenderId,
		msg.Content,
		msg.Type,
		msg.SentAt,
	)

	var id int64
	err := row.Scan(&id)
	return id, err
}

func (db *PgChatRepository) InsertDeliveryRecords(messageId int64, recipientIds []int64, status, at string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.Prepare(
		"INSERT INTO message_status (message_id, recipient_id, status, date_time) VALUES ($1, $2, $3, $4)",
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, recipientId := range recipientIds {
		if _, err = stmt.Exec(messageId, recipientId, status, at); err != nil {
			return fmt.Errorf("insert delivery record for user %d: %w", recipientId, err)
		}
	}

	err = tx.Commit()
	return err
}

func (db *PgChatRepository) InsertResponseCommand(cmd ResponseCommand) (int64, error) {
	row := db.conn.QueryRow(
		"INSERT INTO response_commands (action, recipient_id, json, status) "+
			"VALUES ($1, $2, $3, $4) RETURNING id",
		cmd.Action,
		cmd.RecipientId,
		cmd.Json,
		cmd.Status,
	)

	var id int64
	err := row.Scan(&id)
	return id, err
}

func (db *PgChatRepository) UpdateResponseCommandStatus(id int64, status string) error {
	// idempotent when the row already carries the status
	_, err := db.conn.Exec(
		"UPDATE response_commands SET status = $2 WHERE id = $1",
		id,
		status,
	)
	return err
}

func (db *PgChatRepository) GetNotSentCommands(recipientId int64) ([]ResponseCommand, error) {
	rows, err := db.conn.Query(
		"SELECT id, action, recipient_id, json, status FROM response_commands "+
			"WHERE recipient_id = $1 AND status = 'NOT_SENT' ORDER BY id",
		recipientId,
	)
	if err != nil {
		return nil, fmt.Errorf("get not sent commands: %w", err)
	}
	defer rows.Close()

	var commands []ResponseCommand
	for rows.Next() {
		var cmd ResponseCommand
		if err := rows.Scan(&cmd.Id, &cmd.Action, &cmd.RecipientId, &cmd.Json, &cmd.Status); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		commands = append(commands, cmd)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return commands, nil
}
