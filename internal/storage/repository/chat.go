package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/guia-comercial/internal/models"
)

// FindConversation ищет переписку клиента с комерсом.
func (s *Storage) FindConversation(ctx context.Context, comercioID, clienteUID string) (*models.Conversation, error) {
	const op = "storage.FindConversation"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, comercio_id, cliente_uid, last_message, updated_at
			  FROM conversations
			  WHERE comercio_id = $1 AND cliente_uid = $2`
	var c models.Conversation
	row := s.DB.QueryRowContext(ctx, query, comercioID, clienteUID)
	if err := row.Scan(&c.ID, &c.ComercioID, &c.ClienteUID, &c.LastMessage, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &c, nil
}

// CreateConversation создаёт переписку и возвращает её ID.
func (s *Storage) CreateConversation(ctx context.Context, comercioID, clienteUID string) (string, error) {
	const op = "storage.CreateConversation"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO conversations (comercio_id, cliente_uid, last_message)
			  VALUES ($1, $2, '')
			  RETURNING id`
	var newID string
	if err := s.DB.QueryRowContext(ctx, query, comercioID, clienteUID).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetConversation возвращает переписку по ID вместе с UID владельца комерса.
func (s *Storage) GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	const op = "storage.GetConversation"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT c.id, c.comercio_id, c.cliente_uid, c.last_message, c.updated_at,
			      co.usuario_uid
			  FROM conversations c
			  JOIN comercios co ON co.id = c.comercio_id
			  WHERE c.id = $1`
	var conv models.Conversation
	var ownerUID string
	row := s.DB.QueryRowContext(ctx, query, conversationID)
	if err := row.Scan(&conv.ID, &conv.ComercioID, &conv.ClienteUID,
		&conv.LastMessage, &conv.UpdatedAt, &ownerUID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	conv.ParticipantUIDs = []string{conv.ClienteUID, ownerUID}
	return &conv, nil
}

// ListConversations возвращает переписки, где пользователь является клиентом
// или владельцем комерса, вместе со счётчиком непрочитанного и именем собеседника.
func (s *Storage) ListConversations(ctx context.Context, userUID string) ([]*models.Conversation, error) {
	const op = "storage.ListConversations"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT c.id, c.comercio_id, c.cliente_uid, c.last_message, c.updated_at,
			      co.usuario_uid,
			      COALESCE((SELECT COUNT(*) FROM messages m
			                WHERE m.conversation_id = c.id
			                  AND m.is_read = false
			                  AND m.sender_uid <> $1), 0) AS unread_count,
			      CASE WHEN c.cliente_uid = $1 THEN co.nombre
			           ELSE COALESCE(p.nombre, p.email) END AS other_party
			  FROM conversations c
			  JOIN comercios co ON co.id = c.comercio_id
			  LEFT JOIN profiles p ON p.uid = c.cliente_uid
			  WHERE c.cliente_uid = $1 OR co.usuario_uid = $1
			  ORDER BY c.updated_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Conversation
	for rows.Next() {
		var c models.Conversation
		var ownerUID string
		if err := rows.Scan(&c.ID, &c.ComercioID, &c.ClienteUID, &c.LastMessage,
			&c.UpdatedAt, &ownerUID, &c.UnreadCount, &c.OtherPartyNombre); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		c.ParticipantUIDs = []string{c.ClienteUID, ownerUID}
		result = append(result, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreateMessage вставляет сообщение, обновляет last_message переписки
// и возвращает созданное сообщение. Выполняется в транзакции.
func (s *Storage) CreateMessage(ctx context.Context, conversationID, senderUID, content string) (*models.Message, error) {
	const op = "storage.CreateMessage"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var m models.Message
	query := `INSERT INTO messages (conversation_id, sender_uid, content)
			  VALUES ($1, $2, $3)
			  RETURNING id, conversation_id, sender_uid, content, is_read, created_at`
	if err := tx.QueryRowContext(ctx, query, conversationID, senderUID, content).Scan(
		&m.ID, &m.ConversationID, &m.SenderUID, &m.Content, &m.IsRead, &m.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	updateQuery := `UPDATE conversations
			  SET last_message = $1, updated_at = NOW()
			  WHERE id = $2`
	if _, err := tx.ExecContext(ctx, updateQuery, content, conversationID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &m, nil
}

// ListMessages возвращает сообщения переписки в хронологическом порядке.
func (s *Storage) ListMessages(ctx context.Context, conversationID string) ([]*models.Message, error) {
	const op = "storage.ListMessages"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, conversation_id, sender_uid, content, is_read, created_at
			  FROM messages
			  WHERE conversation_id = $1
			  ORDER BY created_at`
	rows, err := s.DB.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderUID,
			&m.Content, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkMessagesRead помечает чужие сообщения переписки прочитанными.
func (s *Storage) MarkMessagesRead(ctx context.Context, conversationID, readerUID string) error {
	const op = "storage.MarkMessagesRead"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE messages
			  SET is_read = true
			  WHERE conversation_id = $1 AND sender_uid <> $2 AND is_read = false`
	_, err := s.DB.ExecContext(ctx, query, conversationID, readerUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
