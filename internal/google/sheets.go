// Package google mirrors bookings into a Google Sheets spreadsheet for the
// owners, one row per booking.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"bamboowoods/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	sheetName       = "Bookings"
	lastColumn      = "K"
	statusColumn    = "H"
	updatedColumn   = "K"
	timestampLayout = "2006-01-02 15:04:05"
)

var errRowNotFound = errors.New("booking row not found")

var headerRow = []interface{}{
	"ID", "Name", "Email", "Phone", "Event", "Date", "Guests", "Status", "Message", "Created At", "Updated At",
}

type SheetsService struct {
	service       *sheets.Service
	spreadsheetID string
	rowCache      map[int64]int
	cacheMu       sync.RWMutex
	logger        *zerolog.Logger
	now           func() time.Time
}

// NewSheetsService authenticates with a service account key file.
func NewSheetsService(ctx context.Context, credentialsFile, spreadsheetID string, logger *zerolog.Logger) (*SheetsService, error) {
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}
	return newSheetsService(srv, spreadsheetID, logger), nil
}

func newSheetsService(srv *sheets.Service, spreadsheetID string, logger *zerolog.Logger) *SheetsService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &SheetsService{
		service:       srv,
		spreadsheetID: spreadsheetID,
		rowCache:      make(map[int64]int),
		logger:        logger,
		now:           time.Now,
	}
}

// StartCacheRefresh warms the row index now and then every interval until
// ctx is done.
func (s *SheetsService) StartCacheRefresh(ctx context.Context, interval time.Duration) {
	refresh := func() {
		rctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := s.WarmUpCache(rctx); err != nil && ctx.Err() == nil {
			s.logger.Warn().Err(err).Msg("sheets row cache refresh failed")
		}
	}

	refresh()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}

func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, sheetName+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// ServiceAccountEmail returns the address the spreadsheet must be shared with.
func ServiceAccountEmail(credentialsFile string) (string, error) {
	file, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}
	var creds struct {
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(file, &creds); err != nil {
		return "", err
	}
	return creds.ClientEmail, nil
}

// WarmUpCache rebuilds the row index from the ID column.
func (s *SheetsService) WarmUpCache(ctx context.Context) error {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, sheetName+"!A:A").Context(ctx).Do()
	if err != nil {
		return err
	}

	cache := make(map[int64]int, len(resp.Values))
	for i, row := range resp.Values {
		if id, ok := cellID(row); ok {
			cache[id] = i + 1
		}
	}

	s.cacheMu.Lock()
	s.rowCache = cache
	s.cacheMu.Unlock()
	return nil
}

func (s *SheetsService) AppendBooking(ctx context.Context, booking *models.Booking) error {
	valueRange := &sheets.ValueRange{Values: [][]interface{}{bookingRowValues(booking)}}
	resp, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, sheetName+"!A:A", valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return err
	}

	if resp.Updates != nil {
		if row, ok := firstRowOf(resp.Updates.UpdatedRange); ok {
			s.setCachedRow(booking.ID, row)
		}
	}
	return nil
}

// UpsertBooking rewrites the booking's row, appending one when the booking
// is not in the sheet yet.
func (s *SheetsService) UpsertBooking(ctx context.Context, booking *models.Booking) error {
	if booking == nil {
		return errors.New("booking is nil")
	}

	rowIdx, err := s.FindBookingRow(ctx, booking.ID)
	if errors.Is(err, errRowNotFound) {
		return s.AppendBooking(ctx, booking)
	}
	if err != nil {
		return err
	}

	rangeData := fmt.Sprintf("%s!A%d:%s%d", sheetName, rowIdx, lastColumn, rowIdx)
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, &sheets.ValueRange{
		Values: [][]interface{}{bookingRowValues(booking)},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// UpdateBookingStatus rewrites the status and updated-at cells.
func (s *SheetsService) UpdateBookingStatus(ctx context.Context, bookingID int64, status models.Status) error {
	rowIdx, err := s.FindBookingRow(ctx, bookingID)
	if err != nil {
		return err
	}

	statusRange := fmt.Sprintf("%s!%s%d:%s%d", sheetName, statusColumn, rowIdx, statusColumn, rowIdx)
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, statusRange, &sheets.ValueRange{
		Values: [][]interface{}{{string(status)}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return err
	}

	updatedRange := fmt.Sprintf("%s!%s%d:%s%d", sheetName, updatedColumn, rowIdx, updatedColumn, rowIdx)
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, updatedRange, &sheets.ValueRange{
		Values: [][]interface{}{{s.now().UTC().Format(timestampLayout)}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// FindBookingRow returns the 1-based sheet row holding bookingID.
func (s *SheetsService) FindBookingRow(ctx context.Context, bookingID int64) (int, error) {
	if bookingID == 0 {
		return 0, errors.New("booking id is required")
	}
	if row, ok := s.getCachedRow(bookingID); ok {
		return row, nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, sheetName+"!A:A").Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	for i, row := range resp.Values {
		if id, ok := cellID(row); ok && id == bookingID {
			s.setCachedRow(bookingID, i+1)
			return i + 1, nil
		}
	}
	return 0, errRowNotFound
}

// ReplaceBookingsSheet rewrites the header and every data row.
func (s *SheetsService) ReplaceBookingsSheet(ctx context.Context, bookings []*models.Booking) error {
	clearRange := sheetName + "!A1:" + lastColumn
	if _, err := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to clear bookings sheet: %w", err)
	}

	values := make([][]interface{}, 0, len(bookings)+1)
	values = append(values, headerRow)
	for _, b := range bookings {
		values = append(values, bookingRowValues(b))
	}

	_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, sheetName+"!A1", &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update bookings sheet: %w", err)
	}

	cache := make(map[int64]int, len(bookings))
	for i, b := range bookings {
		cache[b.ID] = i + 2
	}
	s.cacheMu.Lock()
	s.rowCache = cache
	s.cacheMu.Unlock()

	s.logger.Info().Int("rows", len(bookings)).Msg("bookings sheet rewritten")
	return nil
}

func (s *SheetsService) getCachedRow(id int64) (int, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	row, ok := s.rowCache[id]
	return row, ok
}

func (s *SheetsService) setCachedRow(id int64, row int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache[id] = row
}

func bookingRowValues(b *models.Booking) []interface{} {
	return []interface{}{
		b.ID,
		b.Name,
		b.Email,
		b.Phone,
		b.Type,
		b.DateString(),
		b.Guests,
		string(b.Status),
		b.Message,
		b.CreatedAt.UTC().Format(timestampLayout),
		b.UpdatedAt.UTC().Format(timestampLayout),
	}
}

func cellID(row []interface{}) (int64, bool) {
	if len(row) == 0 {
		return 0, false
	}
	switch v := row[0].(type) {
	case float64:
		return int64(v), v > 0
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		return id, err == nil && id > 0
	}
	return 0, false
}

// firstRowOf extracts the first row number from an A1 range such as
// "Bookings!A10:K10".
func firstRowOf(a1 string) (int, bool) {
	start := -1
	for i, r := range a1 {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			n, err := strconv.Atoi(a1[start:i])
			return n, err == nil
		}
	}
	if start >= 0 {
		n, err := strconv.Atoi(a1[start:])
		return n, err == nil
	}
	return 0, false
}
