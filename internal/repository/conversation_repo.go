package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/liliang-cn/doc0/internal/domain"
)

// ConversationRepository handles message persistence per topic
type ConversationRepository struct {
	db *DB
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// AppendMessage stores a message at the end of its topic's sequence
func (r *ConversationRepository) AppendMessage(ctx context.Context, message domain.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	var sourcesJSON, codeBlocksJSON sql.NullString
	if len(message.Sources) > 0 {
		data, _ := json.Marshal(message.Sources)
		sourcesJSON = sql.NullString{String: string(data), Valid: true}
	}
	if len(message.CodeBlocks) > 0 {
		data, _ := json.Marshal(message.CodeBlocks)
		codeBlocksJSON = sql.NullString{String: string(data), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (id, topic, role, content, sources, code_blocks, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, message.ID, string(message.Topic), message.Role, message.Content,
		sourcesJSON, codeBlocksJSON, message.CreatedAt.UTC())

	return err
}

// ListMessages retrieves all messages for a topic in insertion order
func (r *ConversationRepository) ListMessages(ctx context.Context, topic domain.Topic) ([]domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, topic, role, content, sources, code_blocks, created_at
		FROM messages WHERE topic = ?
		ORDER BY seq ASC
	`, string(topic))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var (
			message                     domain.Message
			topicName                   string
			sourcesJSON, codeBlocksJSON sql.NullString
		)

		if err := rows.Scan(&message.ID, &topicName, &message.Role, &message.Content,
			&sourcesJSON, &codeBlocksJSON, &message.CreatedAt); err != nil {
			return nil, err
		}
		message.Topic = domain.Topic(topicName)

		if sourcesJSON.Valid && sourcesJSON.String != "" {
			if err := json.Unmarshal([]byte(sourcesJSON.String), &message.Sources); err != nil {
				return nil, fmt.Errorf("decode sources of message %s: %w", message.ID, err)
			}
		}
		if codeBlocksJSON.Valid && codeBlocksJSON.String != "" {
			if err := json.Unmarshal([]byte(codeBlocksJSON.String), &message.CodeBlocks); err != nil {
				return nil, fmt.Errorf("decode code blocks of message %s: %w", message.ID, err)
			}
		}
		messages = append(messages, message)
	}

	return messages, rows.Err()
}

// CountChats returns the total number of user messages (chats)
func (r *ConversationRepository) CountChats(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE role = ?`, domain.RoleUser).Scan(&count)
	return count, err
}
