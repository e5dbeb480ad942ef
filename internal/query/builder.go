// Package query は一覧APIのフィルタ条件からパラメータ化SQLを組み立てる。
// 値はすべてプレースホルダ経由で渡し、SQL文字列に連結しない。
package query

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/hitoshi/studyabroad/internal/model"
)

const (
	// DefaultLimit はlimit未指定またはlimit=0のときの件数。
	DefaultLimit = 25
	// MaxLimit はlimitの上限。超える値は切り詰める。
	MaxLimit = 100
)

// Kind はフィルタの比較方法。
type Kind int

const (
	// Contains は部分一致（大文字小文字を区別しない）。
	Contains Kind = iota
	// Equals は完全一致。
	Equals
	// Min は数値の下限（>=）。
	Min
	// Max は数値の上限（<=）。
	Max
	// Search は複数カラムへの部分一致のOR。値は1つだけバインドする。
	Search
	// EqualsInt は整数の完全一致。
	EqualsInt
)

// Filter はクエリパラメータ1つ分の定義。
type Filter struct {
	Key     string
	Kind    Kind
	Columns []string
}

// Resource は一覧対象の定義。Baseは WHERE を含まない SELECT 文。
// Filtersは宣言順にプレースホルダ番号が割り当てられる。
type Resource struct {
	Name    string
	Base    string
	OrderBy string
	Filters []Filter
}

// FilterSet はクエリパラメータ名から値への対応。
type FilterSet map[string]string

// FromValues はURLクエリからFilterSetを作る。同名パラメータは先頭の値を使う。
func FromValues(v url.Values) FilterSet {
	fs := make(FilterSet, len(v))
	for k, vals := range v {
		if len(vals) > 0 {
			fs[k] = vals[0]
		}
	}
	return fs
}

// Query は組み立て済みのSQLとバインド値。
type Query struct {
	SQL    string
	Args   []any
	Limit  int
	Offset int
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Build はResourceとFilterSetから一覧SQLを組み立てる。
// 未定義のキーは無視し、空白のみの値は未指定として扱う。
// 数値フィルタ・limit・offsetが不正な場合はINVALID_FILTERのAPIErrorを返す。
func Build(r Resource, fs FilterSet) (Query, error) {
	var (
		preds   []string
		args    []any
		invalid []model.FieldError
	)

	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	for _, f := range r.Filters {
		raw := strings.TrimSpace(fs[f.Key])
		if raw == "" || len(f.Columns) == 0 {
			continue
		}

		switch f.Kind {
		case Contains:
			preds = append(preds, fmt.Sprintf("%s ILIKE %s", f.Columns[0], next(likePattern(raw))))
		case Equals:
			preds = append(preds, fmt.Sprintf("%s = %s", f.Columns[0], next(raw)))
		case Min, Max:
			n, err := strconv.ParseFloat(raw, 64)
			if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
				invalid = append(invalid, model.FieldError{Field: f.Key, Message: "must be a number"})
				continue
			}
			op := ">="
			if f.Kind == Max {
				op = "<="
			}
			preds = append(preds, fmt.Sprintf("%s %s %s", f.Columns[0], op, next(n)))
		case Search:
			ph := next(likePattern(raw))
			ors := make([]string, len(f.Columns))
			for i, c := range f.Columns {
				ors[i] = fmt.Sprintf("%s ILIKE %s", c, ph)
			}
			preds = append(preds, "("+strings.Join(ors, " OR ")+")")
		case EqualsInt:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				invalid = append(invalid, model.FieldError{Field: f.Key, Message: "must be an integer"})
				continue
			}
			preds = append(preds, fmt.Sprintf("%s = %s", f.Columns[0], next(n)))
		}
	}

	limit, err := parseCount(fs["limit"], DefaultLimit)
	if err != nil {
		invalid = append(invalid, model.FieldError{Field: "limit", Message: err.Error()})
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	offset, err := parseCount(fs["offset"], 0)
	if err != nil {
		invalid = append(invalid, model.FieldError{Field: "offset", Message: err.Error()})
	}

	if len(invalid) > 0 {
		return Query{}, model.NewInvalidFilterError(invalid...)
	}

	var b strings.Builder
	b.WriteString(r.Base)
	if len(preds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(preds, " AND "))
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(r.OrderBy)
	b.WriteString(" DESC LIMIT ")
	b.WriteString(next(limit))
	b.WriteString(" OFFSET ")
	b.WriteString(next(offset))

	return Query{
		SQL:    b.String(),
		Args:   args,
		Limit:  limit,
		Offset: offset,
	}, nil
}

func likePattern(v string) string {
	return "%" + likeEscaper.Replace(v) + "%"
}

// parseCount はlimit/offsetを解析する。
// 0は「既定値を使う」の意味で、空文字列と同じくdefを返す。limit=0を指定しても0件にはならない。
func parseCount(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def, fmt.Errorf("must be an integer")
	}
	if n < 0 {
		return def, fmt.Errorf("must not be negative")
	}
	if n == 0 {
		return def, nil
	}
	return n, nil
}
