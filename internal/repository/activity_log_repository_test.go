package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/travel-backoffice/internal/model"
)

func TestActivityAppend(t *testing.T) {
	db, mock := newMock(t)
	repo := NewActivityLogRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO activity_logs (reference_id, reference_type, date, description, actor) VALUES (?,?,?,?,?)")).
		WithArgs(5, "Invoice", fixedTime, "Reservation ID: #TK-001 has been paid", "Finance Admin").
		WillReturnResult(sqlmock.NewResult(21, 1))

	e := &model.ActivityLog{
		ReferenceID: 5, ReferenceType: model.ReferenceInvoice, Date: fixedTime,
		Description: "Reservation ID: #TK-001 has been paid", Actor: "Finance Admin",
	}
	require.NoError(t, repo.Append(context.Background(), e))
	assert.Equal(t, uint64(21), e.ID)
}

func TestActivityAppendStampsDate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewActivityLogRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO activity_logs")).
		WithArgs(1, "Reservation", sqlmock.AnyArg(), "created", "Travel Admin").
		WillReturnResult(sqlmock.NewResult(1, 1))

	e := &model.ActivityLog{ReferenceID: 1, ReferenceType: model.ReferenceReservation, Description: "created", Actor: "Travel Admin"}
	require.NoError(t, repo.Append(context.Background(), e))
	assert.False(t, e.Date.IsZero())
}

func TestActivityListFilters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewActivityLogRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM activity_logs WHERE reference_type = ? AND (LOWER(description) LIKE ? OR LOWER(actor) LIKE ?) ORDER BY date DESC, id DESC LIMIT ?")).
		WithArgs("Invoice", "%paid%", "%paid%", 200).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reference_id", "reference_type", "date", "description", "actor"}).
			AddRow(2, 5, "Invoice", fixedTime, "Reservation ID: #TK-001 has been paid", "Finance Admin"))

	list, err := repo.List(context.Background(), ActivityQuery{ReferenceType: "Invoice", Search: "Paid", Limit: 9000})

	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.ReferenceInvoice, list[0].ReferenceType)
	assert.Equal(t, uint64(5), list[0].ReferenceID)
}
