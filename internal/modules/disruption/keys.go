package disruption

import (
	"fmt"
	"strconv"
	"strings"
)

// RowKind is the entity stored on a row.
type RowKind int

const (
	KindInfo RowKind = iota
	KindConsequence
	KindSocialMediaPost
	KindHistory
)

func (k RowKind) segment() string {
	switch k {
	case KindConsequence:
		return "CONSEQUENCE"
	case KindSocialMediaPost:
		return "SOCIALMEDIAPOST"
	case KindHistory:
		return "HISTORY"
	}
	return "INFO"
}

// Overlay is the workflow slot a row lives in.
type Overlay int

const (
	OverlayBaseline Overlay = iota
	OverlayEdit
	OverlayPending
)

func (o Overlay) suffix() string {
	switch o {
	case OverlayEdit:
		return "#EDIT"
	case OverlayPending:
		return "#PENDING"
	}
	return ""
}

func (o Overlay) String() string {
	switch o {
	case OverlayEdit:
		return "edit"
	case OverlayPending:
		return "pending"
	}
	return "baseline"
}

// SortKey is the parsed form of a disruption row's SK:
//
//	{id}#INFO[#EDIT|#PENDING]
//	{id}#CONSEQUENCE#{n}[#EDIT|#PENDING]
//	{id}#SOCIALMEDIAPOST#{n}[#EDIT|#PENDING]
//	{id}#HISTORY#{unix millis}
type SortKey struct {
	DisruptionID string
	Kind         RowKind
	Index        int
	Overlay      Overlay
	Timestamp    int64
}

func InfoKey(id string, o Overlay) SortKey {
	return SortKey{DisruptionID: id, Kind: KindInfo, Overlay: o}
}

func ConsequenceKey(id string, index int, o Overlay) SortKey {
	return SortKey{DisruptionID: id, Kind: KindConsequence, Index: index, Overlay: o}
}

func SocialMediaPostKey(id string, index int, o Overlay) SortKey {
	return SortKey{DisruptionID: id, Kind: KindSocialMediaPost, Index: index, Overlay: o}
}

// HistoryKey addresses a history row. Rows written before millisecond keys
// carry unix seconds; both sort correctly by Timestamp.
func HistoryKey(id string, millis int64) SortKey {
	return SortKey{DisruptionID: id, Kind: KindHistory, Timestamp: millis}
}

// Prefix selects every row of one disruption.
func Prefix(id string) string { return id + "#" }

func (k SortKey) String() string {
	switch k.Kind {
	case KindInfo:
		return k.DisruptionID + "#INFO" + k.Overlay.suffix()
	case KindHistory:
		return k.DisruptionID + "#HISTORY#" + strconv.FormatInt(k.Timestamp, 10)
	}
	return k.DisruptionID + "#" + k.Kind.segment() + "#" + strconv.Itoa(k.Index) + k.Overlay.suffix()
}

// WithOverlay returns the same row key in another slot.
func (k SortKey) WithOverlay(o Overlay) SortKey {
	k.Overlay = o
	return k
}

// ParseSortKey parses a disruption row's SK.
func ParseSortKey(sk string) (SortKey, error) {
	parts := strings.Split(sk, "#")
	if len(parts) < 2 || parts[0] == "" {
		return SortKey{}, fmt.Errorf("malformed sort key %q", sk)
	}
	k := SortKey{DisruptionID: parts[0]}
	rest := parts[2:]

	switch parts[1] {
	case "INFO":
		k.Kind = KindInfo
	case "CONSEQUENCE", "SOCIALMEDIAPOST":
		k.Kind = KindConsequence
		if parts[1] == "SOCIALMEDIAPOST" {
			k.Kind = KindSocialMediaPost
		}
		if len(rest) == 0 {
			return SortKey{}, fmt.Errorf("sort key %q has no index", sk)
		}
		n, err := strconv.Atoi(rest[0])
		if err != nil || n < 0 {
			return SortKey{}, fmt.Errorf("sort key %q has bad index", sk)
		}
		k.Index = n
		rest = rest[1:]
	case "HISTORY":
		if len(rest) != 1 {
			return SortKey{}, fmt.Errorf("sort key %q has no timestamp", sk)
		}
		ts, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return SortKey{}, fmt.Errorf("sort key %q has bad timestamp", sk)
		}
		k.Kind = KindHistory
		k.Timestamp = ts
		return k, nil
	default:
		return SortKey{}, fmt.Errorf("sort key %q has unknown kind %q", sk, parts[1])
	}

	switch {
	case len(rest) == 0:
		k.Overlay = OverlayBaseline
	case len(rest) == 1 && rest[0] == "EDIT":
		k.Overlay = OverlayEdit
	case len(rest) == 1 && rest[0] == "PENDING":
		k.Overlay = OverlayPending
	default:
		return SortKey{}, fmt.Errorf("sort key %q has unknown suffix", sk)
	}
	return k, nil
}
