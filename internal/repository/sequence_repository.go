package repository

import (
	"database/sql"
	"errors"
	"fmt"
)

// Ошибки аллокатора номеров
var (
	ErrSequenceNotFound = errors.New("sequence counter not found")
)

// SequenceRepository - аллокатор человекочитаемых идентификаторов
// на основе таблицы sequences.
//
// Дисциплина блокировок: SELECT ... FOR UPDATE берет эксклюзивную
// блокировку строки счётчика на время транзакции вызывающего, поэтому
// конкурентные вызовы сериализуются СУБД и получают различные номера
// без дубликатов и пропусков. Инкремент и зависимая вставка обязаны
// быть одной транзакцией - два независимых round-trip'а ломают гарантию.
type SequenceRepository struct {
	db *sql.DB
}

// NewSequenceRepository создает новый экземпляр репозитория
func NewSequenceRepository(db *sql.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// AllocateTx выделяет следующий номер счётчика seqType в рамках
// транзакции вызывающего и возвращает его с ведущими нулями до
// digit_width знаков.
//
// Ошибка аллокации фатальна для операции вызывающего: без корректного
// счётчика уникальность идентификаторов не гарантирована, поэтому
// ошибка пробрасывается, а не гасится.
func (r *SequenceRepository) AllocateTx(tx *sql.Tx, seqType string) (string, error) {
	var lastNumber int64
	var digitWidth int

	query := `
		SELECT last_number, digit_width
		FROM sequences
		WHERE type = $1
		FOR UPDATE`

	err := tx.QueryRow(query, seqType).Scan(&lastNumber, &digitWidth)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrSequenceNotFound
		}
		return "", err
	}

	next := lastNumber + 1

	_, err = tx.Exec(`UPDATE sequences SET last_number = $1 WHERE type = $2`, next, seqType)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", digitWidth, next), nil
}
