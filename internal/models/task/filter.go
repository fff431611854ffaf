package task

type SortOrder string

const SortAsc SortOrder = "ASC"
const SortDesc SortOrder = "DESC"

// Filter описывает параметры выборки задач. Владелец задаётся
// отдельно сервисом и никогда не приходит от клиента.
type Filter struct {
	Status    *Status
	Search    string
	Labels    []string
	SortBy    string
	SortOrder SortOrder
	Offset    int
	Limit     int
}

const DefaultLimit = 10
const MaxLimit = 100
const DefaultSortBy = "created_at"

// SortColumns - белый список колонок для сортировки.
var SortColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"title":      true,
	"status":     true,
}

// Normalize подставляет дефолты пагинации и сортировки.
func (f *Filter) Normalize() {
	if f.SortBy == "" {
		f.SortBy = DefaultSortBy
	}
	if f.SortOrder == "" {
		f.SortOrder = SortDesc
	}
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}
