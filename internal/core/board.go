package core

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Fridge item kinds. Drawings and photos are known kinds but carry binary
// payloads that are not stored.
const (
	FridgeTextNote FridgeItemType = "textNote"
	FridgeSticker  FridgeItemType = "sticker"
	FridgeDrawing  FridgeItemType = "drawing"
	FridgePhoto    FridgeItemType = "photo"
)

// Sticky-note colors.
const (
	StickyYellow StickyColor = "yellow"
	StickyPink   StickyColor = "pink"
	StickyBlue   StickyColor = "blue"
	StickyGreen  StickyColor = "green"
	StickyPeach  StickyColor = "peach"
)

// Household calendar item kinds.
const (
	CalendarChore   CalendarItemType = "chore"
	CalendarEvent   CalendarItemType = "event"
	CalendarExpense CalendarItemType = "expense"
)

const stickerAuthor = "Sticker"

type (
	FridgeItemType   string
	StickyColor      string
	CalendarItemType string

	Position struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}

	// FridgeItem is a note or sticker pinned to the shared board.
	FridgeItem struct {
		ID        string         `json:"id"`
		Type      FridgeItemType `json:"type"`
		Author    string         `json:"author"`
		Text      string         `json:"text,omitempty"`
		Emoji     string         `json:"emoji,omitempty"`
		Color     StickyColor    `json:"color,omitempty"`
		CreatedAt time.Time      `json:"createdAt"`
		Position  Position       `json:"position"`
		Rotation  float64        `json:"rotation"`
	}

	// CalendarItem is a free-form entry on the household calendar.
	CalendarItem struct {
		ID     string           `json:"id"`
		Title  string           `json:"title"`
		Type   CalendarItemType `json:"type"`
		Date   time.Time        `json:"date"`
		Notes  string           `json:"notes,omitempty"`
		Amount *decimal.Decimal `json:"amount,omitempty"`
	}
)

var (
	ErrUnsupportedItem  = errors.New("fridge item kind is not supported")
	ErrInvalidItemType  = errors.New("invalid item type")
	ErrInvalidColor     = errors.New("invalid sticky color")
	ErrEmptyText        = errors.New("empty text")
	ErrEmptyEmoji       = errors.New("empty emoji")
	ErrInvalidPlacement = errors.New("invalid position")
)

func ParseStickyColor(s string) (StickyColor, error) {
	c := StickyColor(strings.ToLower(strings.TrimSpace(s)))
	if c == "" {
		return StickyYellow, nil
	}
	switch c {
	case StickyYellow, StickyPink, StickyBlue, StickyGreen, StickyPeach:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
}

// NewTextNote pins a colored note by author at a random spot on the board.
func NewTextNote(text, author string, color StickyColor, now time.Time) (FridgeItem, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return FridgeItem{}, ErrEmptyText
	}
	author = strings.TrimSpace(author)
	if author == "" {
		return FridgeItem{}, ErrEmptyName
	}
	if _, err := ParseStickyColor(string(color)); err != nil {
		return FridgeItem{}, err
	}
	if color == "" {
		color = StickyYellow
	}
	return FridgeItem{
		ID:        NewID(),
		Type:      FridgeTextNote,
		Author:    author,
		Text:      text,
		Color:     color,
		CreatedAt: now,
		Position:  RandomBoardPosition(),
		Rotation:  randomRotation(),
	}, nil
}

func NewSticker(emoji string, now time.Time) (FridgeItem, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return FridgeItem{}, ErrEmptyEmoji
	}
	return FridgeItem{
		ID:        NewID(),
		Type:      FridgeSticker,
		Author:    stickerAuthor,
		Emoji:     emoji,
		CreatedAt: now,
		Position:  RandomBoardPosition(),
		Rotation:  randomRotation(),
	}, nil
}

// ParseFridgeItemType accepts only the kinds that can be created.
func ParseFridgeItemType(s string) (FridgeItemType, error) {
	switch t := FridgeItemType(strings.TrimSpace(s)); t {
	case FridgeTextNote, FridgeSticker:
		return t, nil
	case FridgeDrawing, FridgePhoto:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedItem, t)
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidItemType, s)
	}
}

// RandomBoardPosition returns a spot inside the visible board area.
func RandomBoardPosition() Position {
	return Position{
		X: 100 + rand.Float64()*200,
		Y: 150 + rand.Float64()*450,
	}
}

func randomRotation() float64 {
	return -5 + rand.Float64()*10
}

func (p Position) Validate() error {
	if p.X < 0 || p.Y < 0 {
		return ErrInvalidPlacement
	}
	return nil
}

func ParseCalendarItemType(s string) (CalendarItemType, error) {
	switch t := CalendarItemType(strings.ToLower(strings.TrimSpace(s))); t {
	case CalendarChore, CalendarEvent, CalendarExpense:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidItemType, s)
	}
}

// NewCalendarItem trims title and notes; the amount is kept only for
// expense items.
func NewCalendarItem(title string, typ CalendarItemType, date time.Time, notes string, amount *decimal.Decimal) (CalendarItem, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return CalendarItem{}, ErrEmptyTitle
	}
	if _, err := ParseCalendarItemType(string(typ)); err != nil {
		return CalendarItem{}, err
	}
	item := CalendarItem{
		ID:    NewID(),
		Title: title,
		Type:  typ,
		Date:  date,
		Notes: strings.TrimSpace(notes),
	}
	if typ == CalendarExpense && amount != nil {
		a := RoundMinor(*amount)
		item.Amount = &a
	}
	return item, nil
}
