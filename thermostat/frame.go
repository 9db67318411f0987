package thermostat

import (
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SampleRecord is one aligned sample as stored in the frame.
type SampleRecord struct {
	Seq        int   `gorm:"primaryKey;autoIncrement:false"`
	AtUnix     int64 `gorm:"index"`
	SetTemp    *int
	ActualTemp *int
	Humidity   *int
	Cooling    *bool
}

// Bounds is an inclusive time window. A nil side is unbounded.
type Bounds struct {
	Start *time.Time
	End   *time.Time
}

func (b Bounds) String() string {
	format := func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.Format(time.RFC3339)
	}
	return fmt.Sprintf("[%s, %s]", format(b.Start), format(b.End))
}

// Frame is an in-memory SQLite table of aligned samples used for range
// queries. It lives only as long as the process.
type Frame struct {
	db  *gorm.DB
	loc *time.Location
}

// OpenFrame opens an empty frame. Timestamps read back are expressed in loc.
func OpenFrame(loc *time.Location) (*Frame, error) {
	if loc == nil {
		loc = time.Local
	}
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// Every pooled connection would otherwise see its own empty memory database.
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&SampleRecord{}); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return &Frame{db: db, loc: loc}, nil
}

func (f *Frame) Close() error {
	if f == nil || f.db == nil {
		return nil
	}
	sqlDB, err := f.db.DB()
	if err != nil {
		return err
	}
	err = sqlDB.Close()
	f.db = nil
	return err
}

// Replace drops the frame's content and loads s.
func (f *Frame) Replace(s Series) error {
	if err := f.usable(); err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}
	records := make([]SampleRecord, s.Len())
	for i := range records {
		records[i] = SampleRecord{
			Seq:        i,
			AtUnix:     s.Timestamps[i].Unix(),
			SetTemp:    s.SetTemps[i],
			ActualTemp: s.ActualTemps[i],
			Humidity:   s.Humidity[i],
			Cooling:    s.Cooling[i],
		}
	}
	return f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM sample_records").Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.CreateInBatches(records, 500).Error
	})
}

// Range returns the samples whose timestamp lies within b, in file order.
func (f *Frame) Range(b Bounds) (Series, error) {
	if err := f.usable(); err != nil {
		return Series{}, err
	}
	q := f.db.Model(&SampleRecord{})
	if b.Start != nil {
		q = q.Where("at_unix >= ?", startSecond(*b.Start))
	}
	if b.End != nil {
		q = q.Where("at_unix <= ?", b.End.Unix())
	}
	var records []SampleRecord
	if err := q.Order("seq asc").Find(&records).Error; err != nil {
		return Series{}, err
	}

	out := Series{
		Timestamps:  make([]time.Time, 0, len(records)),
		SetTemps:    make([]*int, 0, len(records)),
		ActualTemps: make([]*int, 0, len(records)),
		Humidity:    make([]*int, 0, len(records)),
		Cooling:     make([]*bool, 0, len(records)),
	}
	for _, rec := range records {
		out.Timestamps = append(out.Timestamps, time.Unix(rec.AtUnix, 0).In(f.loc))
		out.SetTemps = append(out.SetTemps, rec.SetTemp)
		out.ActualTemps = append(out.ActualTemps, rec.ActualTemp)
		out.Humidity = append(out.Humidity, rec.Humidity)
		out.Cooling = append(out.Cooling, rec.Cooling)
	}
	return out, nil
}

// count returns the number of samples held.
func (f *Frame) count() (int64, error) {
	if err := f.usable(); err != nil {
		return 0, err
	}
	var n int64
	err := f.db.Model(&SampleRecord{}).Count(&n).Error
	return n, err
}

var errFrameClosed = errors.New("frame closed")

func (f *Frame) usable() error {
	if f == nil || f.db == nil {
		return errFrameClosed
	}
	return nil
}

// startSecond rounds a lower bound up to whole seconds, the stored resolution.
func startSecond(t time.Time) int64 {
	sec := t.Unix()
	if t.Nanosecond() > 0 {
		sec++
	}
	return sec
}
