package checkin_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/VeroC12-hub/boujee-events-sub002/internal/checkin"
	"github.com/VeroC12-hub/boujee-events-sub002/internal/logger"
	"github.com/VeroC12-hub/boujee-events-sub002/internal/models"
	"github.com/VeroC12-hub/boujee-events-sub002/internal/tickets/checksum"
	"github.com/VeroC12-hub/boujee-events-sub002/internal/tickets/qr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockDBLayer is a mock implementation of the DBLayer interface
type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) GetBookingByID(id string) (*models.Booking, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockDBLayer) GetEvent(id string) (*models.Event, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockDBLayer) GetUser(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockDBLayer) GetCheckInByTicket(ticketID string) (*models.CheckIn, error) {
	args := m.Called(ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CheckIn), args.Error(1)
}

func (m *MockDBLayer) InsertCheckIn(entry models.CheckIn) (bool, error) {
	args := m.Called(entry)
	return args.Bool(0), args.Error(1)
}

func (m *MockDBLayer) CountCheckInsByBooking(bookingID string) (int, error) {
	args := m.Called(bookingID)
	return args.Int(0), args.Error(1)
}

func (m *MockDBLayer) SetTicketUsed(ticketID string) error {
	args := m.Called(ticketID)
	return args.Error(0)
}

func (m *MockDBLayer) SetBookingCheckedIn(bookingID string) error {
	args := m.Called(bookingID)
	return args.Error(0)
}

// MockPublisher is a mock implementation of the Publisher interface
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishTicketCheckedIn(entry models.CheckIn) error {
	args := m.Called(entry)
	return args.Error(0)
}

// MockNotifier is a mock implementation of the Notifier interface
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendCheckInComplete(bookingID string) {
	m.Called(bookingID)
}

type scanFixture struct {
	payload models.TicketPayload
	qrText  string
	booking *models.Booking
	event   *models.Event
	user    *models.User
}

// newScanFixture builds a consistent booking/event/user trio with a QR
// payload whose checksum is genuine.
func newScanFixture(t *testing.T, eventDate time.Time) *scanFixture {
	t.Helper()

	payload := models.TicketPayload{
		TicketID:     "tck_scan01",
		BookingID:    "bkg_scan01",
		EventID:      "evt_scan01",
		UserID:       "usr_scan01",
		TicketNumber: "TKT-AN01-001",
		IssuedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	payload.Checksum = checksum.Compute(payload.TicketID, payload.EventID, payload.UserID)

	raw, err := json.Marshal(payload)
	assert.NoError(t, err)

	return &scanFixture{
		payload: payload,
		qrText:  string(raw),
		booking: &models.Booking{
			BookingID: payload.BookingID,
			UserID:    payload.UserID,
			EventID:   payload.EventID,
			Quantity:  2,
			Status:    models.BookingConfirmed,
		},
		event: &models.Event{
			ID:       payload.EventID,
			Title:    "Rooftop Soirée",
			Date:     eventDate,
			Capacity: 100,
		},
		user: &models.User{
			ID:       payload.UserID,
			Email:    "guest@example.com",
			FullName: "Ama Mensah",
		},
	}
}

func newTestService(db *MockDBLayer, kafka *MockPublisher, notifier *MockNotifier) *checkin.Service {
	return checkin.NewService(db, qr.NewCodec(), kafka, notifier, &logger.Logger{})
}

func TestValidateInvalidFormat(t *testing.T) {
	svc := newTestService(new(MockDBLayer), new(MockPublisher), new(MockNotifier))

	for _, input := range []string{"", "not json", `{"ticketId":"only"}`, "12345"} {
		result, err := svc.Validate(input)
		assert.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Equal(t, models.ReasonInvalidFormat, result.Error)
		assert.Nil(t, result.Ticket)
	}
}

func TestValidateChecksumMismatch(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockPublisher), new(MockNotifier))

	fx := newScanFixture(t, time.Now().Add(-time.Hour))
	fx.payload.Checksum = "forged"
	raw, _ := json.Marshal(fx.payload)

	result, err := svc.Validate(string(raw))
	assert.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, models.ReasonChecksumMismatch, result.Error)

	// Forged payloads never touch the database
	mockDB.AssertNotCalled(t, "GetBookingByID", mock.Anything)
}

func TestValidateTamperedField(t *testing.T) {
	svc := newTestService(new(MockDBLayer), new(MockPublisher), new(MockNotifier))

	// Checksum was computed for usr_scan01; swapping the user invalidates it.
	fx := newScanFixture(t, time.Now().Add(-time.Hour))
	fx.payload.UserID = "usr_other"
	raw, _ := json.Marshal(fx.payload)

	result, err := svc.Validate(string(raw))
	assert.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, models.ReasonChecksumMismatch, result.Error)
}

func TestValidateBookingCancelled(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockPublisher), new(MockNotifier))

	fx := newScanFixture(t, time.Now().Add(-time.Hour))
	fx.booking.Status = models.BookingCancelled
	mockDB.On("GetBookingByID", fx.payload.BookingID).Return(fx.booking, nil)

	result, err := svc.Validate(fx.qrText)
	assert.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, models.ReasonBookingUnavailable, result.Error)
}

func TestValidateBookingNotFound(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockPublisher), new(MockNotifier))

	fx := newScanFixture(t, time.Now().Add(-time.Hour))
	mockDB.On("GetBookingByID", fx.payload.BookingID).Return(nil, models.ErrBookingNotFound)

	result, err := svc.Validate(fx.qrText)
	assert.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, models.ReasonBookingUnavailable, result.Error)
}

func TestValidateAlreadyUsedIncludesContext(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockPublisher), new(MockNotifier))

	fx := newScanFixture(t, time.Now().Add(-time.Hour))
	usedAt := time.Now().Add(-10 * time.Minute).UTC()

	mockDB.On("GetBookingByID", fx.payload.BookingID).Return(fx.booking, nil)
	mockDB.On("GetEvent", fx.payload.EventID).Return(fx.event, nil)
	mockDB.On("GetUser", fx.payload.UserID).Return(fx.user, nil)
	mockDB.On("GetCheckInByTicket", fx.payload.TicketID).Return(&models.CheckIn{
		TicketID:    fx.payload.TicketID,
		CheckedInAt: usedAt,
	}, nil)

	result, err := svc.Validate(fx.qrText)
	assert.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, models.ReasonAlreadyUsed, result.Error)

	// The operator still sees who the ticket belonged to
	assert.NotNil(t, result.Ticket)
	assert.Equal(t, models.TicketUsed, result.Ticket.Status)
	assert.NotNil(t, result.Ticket.UsedAt)
	assert.Equal(t, usedAt, *result.Ticket.UsedAt)
	assert.Equal(t, fx.event.Title, result.Event.Title)
	assert.Equal(t, fx.user.FullName, result.User.FullName)
}

func TestValidateBeforeEventDate(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockPublisher), new(MockNotifier))

	fx := newScanFixture(t, time.Now().Add(72*time.Hour))
	mockDB.On("GetBookingByID", fx.payload.BookingID).Return(fx.booking, nil)
	mockDB.On("GetEvent", fx.payload.EventID).Return(fx.event, nil)
	mockDB.On("GetUser", fx.payload.UserID).Return(fx.user, nil)
	mockDB.On("GetCheckInByTicket", fx.payload.TicketID).Return(nil, nil)

	result, err := svc.Validate(fx.qrText)
	assert.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, models.ReasonBeforeEventDate, result.Error)
	assert.NotNil(t, result.Ticket)
	assert.Equal(t, models.TicketValid, result.Ticket.Status)
}

func TestValidateAcceptsSameCalendarDay(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockPublisher), new(MockNotifier))

	// Event starts at 23:00 tonight; scans are allowed from midnight of the
	// event day, so a scan earlier on the day itself is valid.
	now := time.Now()
	tonight := time.Date(now.Year(), now.Month(), now.Day(), 23, 0, 0, 0, now.Location())
	fx := newScanFixture(t, tonight)
	mockDB.On("GetBookingByID", fx.payload.BookingID).Return(fx.booking, nil)
	mockDB.On("GetEvent", fx.payload.EventID).Return(fx.event, nil)
	mockDB.On("GetUser", fx.payload.UserID).Return(fx.user, nil)
	mockDB.On("GetCheckInByTicket", fx.payload.TicketID).Return(nil, nil)

	result, err := svc.Validate(fx.qrText)
	assert.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Error)
}

func TestCheckInHappyPath(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockKafka := new(MockPublisher)
	mockNotifier := new(MockNotifier)
	svc := newTestService(mockDB, mockKafka, mockNotifier)

	fx := newScanFixture(t, time.Now().Add(-time.Hour))
	mockDB.On("GetBookingByID", fx.payload.BookingID).Return(fx.booking, nil)
	mockDB.On("GetEvent", fx.payload.EventID).Return(fx.event, nil)
	mockDB.On("GetUser", fx.payload.UserID).Return(fx.user, nil)
	mockDB.On("GetCheckInByTicket", fx.payload.TicketID).Return(nil, nil)
	mockDB.On("InsertCheckIn", mock.MatchedBy(func(e models.CheckIn) bool {
		return e.TicketID == fx.payload.TicketID && e.CheckedInBy == "gate-3"
	})).Return(true, nil)
	mockDB.On("SetTicketUsed", fx.payload.TicketID).Return(nil)
	mockDB.On("CountCheckInsByBooking", fx.payload.BookingID).Return(1, nil)
	mockKafka.On("PublishTicketCheckedIn", mock.Anything).Return(nil)

	result, err := svc.CheckIn(fx.qrText, "gate-3")
	assert.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, models.TicketUsed, result.Ticket.Status)
	assert.NotNil(t, result.Ticket.UsedAt)

	// One of two tickets used: booking stays confirmed
	mockDB.AssertNotCalled(t, "SetBookingCheckedIn", mock.Anything)
	mockDB.AssertExpectations(t)
	mockKafka.AssertExpectations(t)
}

func TestCheckInLastTicketFlipsBooking(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockKafka := new(MockPublisher)
	mockNotifier := new(MockNotifier)
	svc := newTestService(mockDB, mockKafka, mockNotifier)

	fx := newScanFixture(t, time.Now().Add(-time.Hour))
	mockDB.On("GetBookingByID", fx.payload.BookingID).Return(fx.booking, nil)
	mockDB.On("GetEvent", fx.payload.EventID).Return(fx.event, nil)
	mockDB.On("GetUser", fx.payload.UserID).Return(fx.user, nil)
	mockDB.On("GetCheckInByTicket", fx.payload.TicketID).Return(nil, nil)
	mockDB.On("InsertCheckIn", mock.Anything).Return(true, nil)
	mockDB.On("SetTicketUsed", fx.payload.TicketID).Return(nil)
	mockDB.On("CountCheckInsByBooking", fx.payload.BookingID).Return(2, nil)
	mockDB.On("SetBookingCheckedIn", fx.payload.BookingID).Return(nil)
	mockKafka.On("PublishTicketCheckedIn", mock.Anything).Return(nil)

	done := make(chan struct{})
	mockNotifier.On("SendCheckInComplete", fx.payload.BookingID).Run(func(mock.Arguments) {
		close(done)
	}).Return()

	result, err := svc.CheckIn(fx.qrText, "gate-1")
	assert.NoError(t, err)
	assert.True(t, result.Valid)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("completion notification was never sent")
	}
	mockDB.AssertExpectations(t)
}

func TestCheckInLosesInsertRace(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockKafka := new(MockPublisher)
	svc := newTestService(mockDB, mockKafka, new(MockNotifier))

	fx := newScanFixture(t, time.Now().Add(-time.Hour))
	usedAt := time.Now().UTC()

	mockDB.On("GetBookingByID", fx.payload.BookingID).Return(fx.booking, nil)
	mockDB.On("GetEvent", fx.payload.EventID).Return(fx.event, nil)
	mockDB.On("GetUser", fx.payload.UserID).Return(fx.user, nil)
	// First lookup (validation) sees nothing; a concurrent scan wins the
	// insert, and the re-read after the lost race finds its row.
	mockDB.On("GetCheckInByTicket", fx.payload.TicketID).Return(nil, nil).Once()
	mockDB.On("InsertCheckIn", mock.Anything).Return(false, nil)
	mockDB.On("GetCheckInByTicket", fx.payload.TicketID).Return(&models.CheckIn{
		TicketID:    fx.payload.TicketID,
		CheckedInAt: usedAt,
	}, nil).Once()

	result, err := svc.CheckIn(fx.qrText, "gate-2")
	assert.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, models.ReasonAlreadyUsed, result.Error)
	assert.Equal(t, usedAt, *result.Ticket.UsedAt)

	mockDB.AssertNotCalled(t, "SetTicketUsed", mock.Anything)
	mockKafka.AssertNotCalled(t, "PublishTicketCheckedIn", mock.Anything)
}

func TestCheckInInvalidScanWritesNothing(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newTestService(mockDB, new(MockPublisher), new(MockNotifier))

	result, err := svc.CheckIn("garbage", "gate-1")
	assert.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, models.ReasonInvalidFormat, result.Error)
	mockDB.AssertNotCalled(t, "InsertCheckIn", mock.Anything)
}

func TestCheckInRetriesInsertOnce(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockKafka := new(MockPublisher)
	svc := newTestService(mockDB, mockKafka, new(MockNotifier))

	fx := newScanFixture(t, time.Now().Add(-time.Hour))
	mockDB.On("GetBookingByID", fx.payload.BookingID).Return(fx.booking, nil)
	mockDB.On("GetEvent", fx.payload.EventID).Return(fx.event, nil)
	mockDB.On("GetUser", fx.payload.UserID).Return(fx.user, nil)
	mockDB.On("GetCheckInByTicket", fx.payload.TicketID).Return(nil, nil)
	mockDB.On("InsertCheckIn", mock.Anything).Return(false, assert.AnError).Once()
	mockDB.On("InsertCheckIn", mock.Anything).Return(true, nil).Once()
	mockDB.On("SetTicketUsed", fx.payload.TicketID).Return(nil)
	mockDB.On("CountCheckInsByBooking", fx.payload.BookingID).Return(1, nil)
	mockKafka.On("PublishTicketCheckedIn", mock.Anything).Return(nil)

	result, err := svc.CheckIn(fx.qrText, "gate-1")
	assert.NoError(t, err)
	assert.True(t, result.Valid)
	mockDB.AssertNumberOfCalls(t, "InsertCheckIn", 2)
}
