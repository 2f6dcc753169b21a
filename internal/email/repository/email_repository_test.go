package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	emaildomain "mail-assistant-backend/internal/email/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&emaildomain.Email{},
		&emaildomain.EmailAttribute{},
		&emaildomain.Template{},
	))
	return db
}

func storedEmail(uid uint32, folder, subject string, date time.Time) *emaildomain.Email {
	return &emaildomain.Email{
		UID:     uid,
		Folder:  folder,
		Subject: subject,
		Sender:  "dev@example.com",
		Date:    date,
		Content: "正文",
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewEmailRepository(db)

	date := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(storedEmail(10, "INBOX", "第一版", date)))
	require.NoError(t, repo.Upsert(storedEmail(10, "INBOX", "第二版", date)))

	var count int64
	require.NoError(t, db.Model(&emaildomain.Email{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "re-ingesting the same (folder, uid) must not duplicate")

	got, err := repo.GetByUID("INBOX", 10)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "第二版", got.Subject, "last write wins")
}

func TestUpsertSameUIDDifferentFolders(t *testing.T) {
	db := newTestDB(t)
	repo := NewEmailRepository(db)

	date := time.Now()
	require.NoError(t, repo.Upsert(storedEmail(10, "INBOX", "收件箱", date)))
	require.NoError(t, repo.Upsert(storedEmail(10, "Sent", "已发送", date)))

	var count int64
	require.NoError(t, db.Model(&emaildomain.Email{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestGetByUIDNotFound(t *testing.T) {
	repo := NewEmailRepository(newTestDB(t))
	got, err := repo.GetByUID("INBOX", 999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMaxUIDIsSyncCursor(t *testing.T) {
	repo := NewEmailRepository(newTestDB(t))

	cursor, err := repo.MaxUID("INBOX")
	require.NoError(t, err)
	assert.Equal(t, uint32(0), cursor, "empty folder starts at cursor 0")

	date := time.Now()
	for _, uid := range []uint32{10, 15, 12} {
		require.NoError(t, repo.Upsert(storedEmail(uid, "INBOX", fmt.Sprintf("邮件%d", uid), date)))
	}
	require.NoError(t, repo.Upsert(storedEmail(99, "Sent", "别的文件夹", date)))

	cursor, err = repo.MaxUID("INBOX")
	require.NoError(t, err)
	assert.Equal(t, uint32(15), cursor, "cursor is per folder")
}

func TestListWithoutAttributes(t *testing.T) {
	db := newTestDB(t)
	repo := NewEmailRepository(db)
	attrRepo := NewAttributeRepository(db)

	date := time.Now()
	for _, uid := range []uint32{1, 2, 3} {
		require.NoError(t, repo.Upsert(storedEmail(uid, "INBOX", fmt.Sprintf("邮件%d", uid), date)))
	}
	require.NoError(t, attrRepo.Upsert(&emaildomain.EmailAttribute{UID: 2, Gist: "已抽取"}))

	missing, err := repo.ListWithoutAttributes(10)
	require.NoError(t, err)
	require.Len(t, missing, 2)
	assert.Equal(t, uint32(1), missing[0].UID)
	assert.Equal(t, uint32(3), missing[1].UID)
}

func TestListAttributedByDate(t *testing.T) {
	db := newTestDB(t)
	repo := NewEmailRepository(db)
	attrRepo := NewAttributeRepository(db)

	day := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	inDay := []uint32{5, 3, 8}
	for _, uid := range inDay {
		require.NoError(t, repo.Upsert(storedEmail(uid, "INBOX", fmt.Sprintf("邮件%d", uid), day.Add(time.Duration(uid)*time.Hour))))
		require.NoError(t, attrRepo.Upsert(&emaildomain.EmailAttribute{
			UID:  uid,
			Gist: fmt.Sprintf("要点%d", uid),
		}))
	}
	// Next day, and an unattributed mail in-day: both excluded.
	require.NoError(t, repo.Upsert(storedEmail(20, "INBOX", "次日", day.AddDate(0, 0, 1))))
	require.NoError(t, attrRepo.Upsert(&emaildomain.EmailAttribute{UID: 20, Gist: "次日要点"}))
	require.NoError(t, repo.Upsert(storedEmail(30, "INBOX", "未抽取", day.Add(time.Hour))))

	count, err := repo.CountAttributedByDate(day.Add(12 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	rows, err := repo.ListAttributedByDate(day.Add(12 * time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	// UID ascending, regardless of insertion order.
	assert.Equal(t, uint32(3), rows[0].UID)
	assert.Equal(t, uint32(5), rows[1].UID)
	assert.Equal(t, uint32(8), rows[2].UID)
	assert.Equal(t, "要点3", rows[0].Gist)
}

func TestAttributeUpsertReplaces(t *testing.T) {
	db := newTestDB(t)
	attrRepo := NewAttributeRepository(db)

	require.NoError(t, attrRepo.Upsert(&emaildomain.EmailAttribute{UID: 7, Gist: "第一版"}))
	require.NoError(t, attrRepo.Upsert(&emaildomain.EmailAttribute{UID: 7, Gist: "第二版"}))

	var count int64
	require.NoError(t, db.Model(&emaildomain.EmailAttribute{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	got, err := attrRepo.GetByUID(7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "第二版", got.Gist)
}

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	repo := NewTemplateRepository(newTestDB(t))

	require.NoError(t, repo.SeedDefaults())
	require.NoError(t, repo.SeedDefaults())

	templates, err := repo.List()
	require.NoError(t, err)
	assert.Len(t, templates, 2)

	tpl, err := repo.GetByName("工作汇报")
	require.NoError(t, err)
	require.NotNil(t, tpl)
	assert.Contains(t, tpl.Subject, "{date}")
}
