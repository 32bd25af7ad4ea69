package gokeyset

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Placeholder of either dialect: "?" for MySQL, "$N" for Postgres.
const _ph = `(?:\$\d+|\?)`

// Identifier quote of either dialect.
const _q = "[`'\"]"

type mockFn func() (string, *gorm.DB, sqlmock.Sqlmock, error)

var _mockDialects = []mockFn{
	newGORMMySQLMock,
	newGORMPostgresMock,
}

func newGORMMySQLMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "mysql", db.Debug(), mock, nil
}

func newGORMPostgresMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := postgres.New(postgres.Config{
		Conn: mockDB,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "postgres", db.Debug(), mock, nil
}

// newSQLiteDB opens a private in-memory SQLite database.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to ":memory:" is a separate database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

type tBook struct {
	ID     int64  `gorm:"primaryKey"`
	Author string `gorm:"not null"`
	Title  string `gorm:"not null"`
}

func (tBook) TableName() string {
	return "books"
}

// seedBooks creates the books table with n rows: authors cycle over three
// names, titles over five, ids are 1..n.
func seedBooks(t *testing.T, db *gorm.DB, n int) []tBook {
	t.Helper()

	require.NoError(t, db.AutoMigrate(&tBook{}))

	authors := []string{"Joseph Heller", "Kurt Vonnegut", "Ursula Le Guin"}
	titles := []string{"Catch 22", "Slaughterhouse-Five", "The Dispossessed", "Cat's Cradle", "Lathe of Heaven"}

	books := make([]tBook, 0, n)
	for i := 1; i <= n; i++ {
		books = append(books, tBook{
			ID:     int64(i),
			Author: authors[i%len(authors)],
			Title:  titles[i%len(titles)],
		})
	}
	if n > 0 {
		require.NoError(t, db.Create(&books).Error)
	}

	return books
}

var _bookGetters = Getters[tBook]{
	"author": func(b tBook) any { return b.Author },
	"title":  func(b tBook) any { return b.Title },
	"id":     func(b tBook) any { return b.ID },
}
