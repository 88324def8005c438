package listview

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aanand-mishra/student-records/internal/types"
)

// DefaultSampleSize is how many records Seed adds when asked for none.
const DefaultSampleSize = 50

var sampleNames = []string{
	"Nguyễn Văn An", "Trần Thị Bình", "Lê Văn Cường", "Phạm Thị Dung",
	"Hoàng Văn Em", "Ngô Thị Phương", "Vũ Văn Giàu", "Đặng Thị Hoa",
	"Bùi Văn Inh", "Đỗ Thị Kim", "Hồ Văn Lâm", "Mai Thị Mỹ",
	"Phan Văn Nam", "Trương Thị Oanh", "Lý Văn Phát", "Võ Thị Quỳnh",
	"Nguyễn Thị Lan", "Trần Văn Hùng", "Lê Thị Mai", "Phạm Văn Đức",
}

var sampleAddresses = []string{
	"Hà Nội", "TP. Hồ Chí Minh", "Đà Nẵng", "Hải Phòng",
	"Cần Thơ", "Biên Hòa", "Nha Trang", "Huế",
	"Quy Nhơn", "Vũng Tàu", "Long Xuyên", "Việt Trì",
	"Thái Nguyên", "Hạ Long", "Thanh Hóa", "Vinh",
	"Đồng Nai", "Bình Dương", "Bắc Ninh", "Hải Dương",
}

// Sample StudentIDs have the form 202F#### with faculty F in 1..4.
const (
	sampleIDBase  = 2021_0000
	sampleIDSpace = 4_0000
)

// ErrSampleIDsExhausted is returned when fewer unused sample StudentIDs
// remain than were asked for.
var ErrSampleIDsExhausted = errors.New("not enough unused sample student IDs")

// SampleStudents generates n random students whose StudentIDs are
// distinct and not taken. The ids are drawn from the free part of the
// 202F#### range, so the work is bounded even when the range is nearly
// used up.
func SampleStudents(rng *rand.Rand, n int, taken func(int) bool) ([]types.StudentInput, error) {
	free := make([]int, 0, sampleIDSpace)
	for id := sampleIDBase; id < sampleIDBase+sampleIDSpace; id++ {
		if taken == nil || !taken(id) {
			free = append(free, id)
		}
	}
	if n > len(free) {
		return nil, fmt.Errorf("%w: asked for %d, %d left", ErrSampleIDsExhausted, n, len(free))
	}

	out := make([]types.StudentInput, 0, n)
	for i := range n {
		// Partial Fisher-Yates: free[:i] holds the ids already drawn.
		j := i + rng.IntN(len(free)-i)
		free[i], free[j] = free[j], free[i]
		id := free[i]

		roll := 1 + rng.IntN(50)
		bday := types.NewDate(1995+rng.IntN(11), time.Month(1+rng.IntN(12)), 1+rng.IntN(28))
		out = append(out, types.StudentInput{
			StudentID: &id,
			Name:      sampleNames[rng.IntN(len(sampleNames))],
			Roll:      &roll,
			Birthday:  &bday,
			Address:   sampleAddresses[rng.IntN(len(sampleAddresses))],
		})
	}
	return out, nil
}

// Seed posts n generated students concurrently (at most 8 in flight),
// then refetches. It returns how many were created.
func (s *Session) Seed(ctx context.Context, rng *rand.Rand, n int) (int, error) {
	if n <= 0 {
		n = DefaultSampleSize
	}

	used := make(map[int]bool, len(s.View.All()))
	for _, r := range s.View.All() {
		used[r.StudentID] = true
	}
	samples, err := SampleStudents(rng, n, func(id int) bool { return used[id] })
	if err != nil {
		return 0, err
	}

	defer s.begin()()

	created := make([]bool, len(samples))
	var g errgroup.Group
	g.SetLimit(8)
	for i, in := range samples {
		// A failed create does not stop the others; cancellation does.
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if _, err := s.backend.Create(ctx, in); err != nil {
				return err
			}
			created[i] = true
			return nil
		})
	}
	seedErr := g.Wait()
	if seedErr == nil {
		seedErr = ctx.Err()
	}

	count := 0
	for _, ok := range created {
		if ok {
			count++
		}
	}

	if err := s.Refresh(ctx); err != nil {
		return count, errors.Join(seedErr, err)
	}
	return count, seedErr
}
