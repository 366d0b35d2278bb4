package database

import (
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"adreset/internal/model"
)

func (db *DB) GetQuestion(id int64) (*model.Question, error) {
	q := &model.Question{}
	err := db.conn.QueryRow(
		"SELECT id, question, enabled FROM questions WHERE id = $1", id,
	).Scan(&q.ID, &q.Question, &q.Enabled)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return q, err
}

// ListQuestions returns the question bank. With enabledOnly set, disabled
// questions are filtered out.
func (db *DB) ListQuestions(enabledOnly bool) ([]model.Question, error) {
	query := "SELECT id, question, enabled FROM questions ORDER BY id"
	if enabledOnly {
		query = "SELECT id, question, enabled FROM questions WHERE enabled ORDER BY id"
	}
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.Question, &q.Enabled); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (db *DB) QuestionExists(text string) (bool, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM questions WHERE question = $1", text).Scan(&n)
	return n > 0, err
}

func (db *DB) CreateQuestion(text string, enabled bool) (*model.Question, error) {
	q := &model.Question{}
	err := db.conn.QueryRow(
		"INSERT INTO questions (question, enabled) VALUES ($1, $2) RETURNING id, question, enabled",
		text, enabled,
	).Scan(&q.ID, &q.Question, &q.Enabled)
	return q, err
}

func (db *DB) UpdateQuestion(q *model.Question) error {
	_, err := db.conn.Exec(
		"UPDATE questions SET question = $1, enabled = $2 WHERE id = $3",
		q.Question, q.Enabled, q.ID,
	)
	return err
}

// SetAnswers replaces the user's stored answers in one transaction. The
// answers are bcrypt-hashed before they touch the database.
func (db *DB) SetAnswers(userID int64, answers map[int64]string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM answers WHERE user_id = $1", userID); err != nil {
		return err
	}
	for questionID, answer := range answers {
		hash, err := bcrypt.GenerateFromPassword([]byte(answer), 12)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			"INSERT INTO answers (user_id, question_id, answer_hash) VALUES ($1, $2, $3)",
			userID, questionID, string(hash),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (db *DB) GetAnswersByUser(userID int64) ([]model.Answer, error) {
	rows, err := db.conn.Query(
		"SELECT id, user_id, question_id, answer_hash FROM answers WHERE user_id = $1 ORDER BY question_id",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.ID, &a.UserID, &a.QuestionID, &a.AnswerHash); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

func (db *DB) CountAnswersByUser(userID int64) (int, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM answers WHERE user_id = $1", userID).Scan(&n)
	return n, err
}

func (db *DB) DeleteAnswers(userID int64) error {
	_, err := db.conn.Exec("DELETE FROM answers WHERE user_id = $1", userID)
	return err
}

// VerifyAnswer compares a submitted answer against the stored hash.
func VerifyAnswer(submitted, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(submitted)) == nil
}

// ValidateQuestionText keeps the question length bound in one place.
func ValidateQuestionText(text string) error {
	if len(text) > 256 {
		return fmt.Errorf("the question must be less than 256 characters")
	}
	return nil
}
