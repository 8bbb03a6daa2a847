package tweetstat

import (
	"fmt"
	"time"
	"unicode/utf8"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PostTable is a column-oriented view of a post sequence. Row i of every column
// describes the i-th input post.
type PostTable struct {
	Text      []string
	ID        []string
	Length    []int
	CreatedAt []time.Time
	Source    []string
	Likes     []int
	Retweets  []int
}

// Len returns the number of rows.
func (t *PostTable) Len() int { return len(t.ID) }

// Row is one post's projection.
type Row struct {
	Text      string
	ID        string
	Length    int
	CreatedAt time.Time
	Source    string
	Likes     int
	Retweets  int
}

// Row returns row i.
func (t *PostTable) Row(i int) Row {
	return Row{
		Text:      t.Text[i],
		ID:        t.ID[i],
		Length:    t.Length[i],
		CreatedAt: t.CreatedAt[i],
		Source:    t.Source[i],
		Likes:     t.Likes[i],
		Retweets:  t.Retweets[i],
	}
}

// ToTable projects posts into a table. Length is the character count of Text.
// A nil post or one without an ID fails the whole call.
func ToTable(posts []*Post) (*PostTable, error) {
	n := len(posts)
	t := &PostTable{
		Text:      make([]string, n),
		ID:        make([]string, n),
		Length:    make([]int, n),
		CreatedAt: make([]time.Time, n),
		Source:    make([]string, n),
		Likes:     make([]int, n),
		Retweets:  make([]int, n),
	}
	for i, p := range posts {
		if p == nil {
			return nil, fmt.Errorf("%w: row %d is nil", ErrMalformedRecord, i)
		}
		if p.ID == "" {
			return nil, fmt.Errorf("%w: row %d has no id", ErrMalformedRecord, i)
		}
		t.Text[i] = p.Text
		t.ID[i] = p.ID
		t.Length[i] = utf8.RuneCountInString(p.Text)
		t.CreatedAt[i] = p.CreatedAt
		t.Source[i] = p.Source
		t.Likes[i] = p.Likes
		t.Retweets[i] = p.Retweets
	}
	return t, nil
}

// Summary holds the two descriptive statistics of a table.
type Summary struct {
	Count      int
	MeanLength float64
	MaxLikes   int
}

// Summarize computes mean text length and maximum like count.
func Summarize(t *PostTable) (Summary, error) {
	if t == nil || t.Len() == 0 {
		return Summary{}, ErrEmptyTable
	}
	return Summary{
		Count:      t.Len(),
		MeanLength: stat.Mean(toFloats(t.Length), nil),
		MaxLikes:   int(floats.Max(toFloats(t.Likes))),
	}, nil
}

func toFloats(v []int) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
