package validation

import (
	"time"
)

// Result is the outcome of validating one input: typed data or every violation.
type Result[T any] struct {
	Success bool
	Data    T
	Errors  []string
}

// Schema pairs a rule over a Record with the constructor of its typed form.
type Schema[T any] struct {
	rule  Rule
	build func(Record) T
}

// Validate never fails on malformed input; problems are reported in Result.Errors.
func Validate[T any](schema Schema[T], raw any) Result[T] {
	out, violations := schema.rule(raw)
	if len(violations) > 0 {
		errs := make([]string, len(violations))
		for i, v := range violations {
			errs[i] = v.String()
		}
		return Result[T]{Errors: errs}
	}
	return Result[T]{Success: true, Data: schema.build(out.(Record))}
}

type OptionInput struct {
	Text     string
	Position int
}

type PollInput struct {
	Title       string
	Description *string
	AllowMulti  bool
	ClosesAt    *time.Time
	Options     []OptionInput
}

type VoteInput struct {
	PollID   int64
	OptionID int64
}

type ProfileInput struct {
	Name               string
	Bio                *string
	EmailNotifications bool
	PollNotifications  bool
	PublicProfile      bool
	ShowEmail          bool
	Theme              string
	Language           string
}

const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

var optionRule = Object(
	Field{"text", Chain(
		Required("Option text is required"),
		String(),
		Sanitized(),
		MinLength(1, "Option text is required"),
		MaxLength(100, "Option text must be less than 100 characters"),
	)},
	Field{"position", Chain(
		Required("Required"),
		Int(),
		IntRange(0, 9, "Position must be between 0 and 9"),
	)},
)

var PollSchema = Schema[PollInput]{
	rule: Object(
		Field{"title", Chain(
			Required("Title is required"),
			String(),
			Sanitized(),
			MinLength(1, "Title is required"),
			MaxLength(200, "Title must be less than 200 characters"),
		)},
		Field{"description", Chain(
			Nullable(),
			String(),
			Sanitized(),
			NilIfEmpty(),
			MaxLength(1000, "Description must be less than 1000 characters"),
		)},
		Field{"allow_multi", Chain(Default(false), Bool())},
		Field{"closes_at", Chain(Nullable(), String(), NilIfEmpty(), Timestamp())},
		Field{"options", Chain(
			Required("Required"),
			Refine(
				Array(optionRule, 2, "At least 2 options are required", 10, "Maximum 10 options allowed"),
				uniquePositions,
			),
		)},
	),
	build: func(r Record) PollInput {
		in := PollInput{
			Title:       r["title"].(string),
			Description: optionalString(r["description"]),
			AllowMulti:  r["allow_multi"].(bool),
		}
		if t, ok := r["closes_at"].(time.Time); ok {
			in.ClosesAt = &t
		}
		for _, item := range r["options"].([]any) {
			opt := item.(Record)
			in.Options = append(in.Options, OptionInput{
				Text:     opt["text"].(string),
				Position: int(opt["position"].(int64)),
			})
		}
		return in
	},
}

var VoteSchema = Schema[VoteInput]{
	rule: Object(
		Field{"poll_id", Chain(Required("Required"), Int(), Positive("Invalid poll ID"))},
		Field{"option_id", Chain(Required("Required"), Int(), Positive("Invalid option ID"))},
	),
	build: func(r Record) VoteInput {
		return VoteInput{
			PollID:   r["poll_id"].(int64),
			OptionID: r["option_id"].(int64),
		}
	},
}

var ProfileSchema = Schema[ProfileInput]{
	rule: Object(
		Field{"name", Chain(
			Required("Name is required"),
			String(),
			Sanitized(),
			MinLength(1, "Name is required"),
			MaxLength(100, "Name must be less than 100 characters"),
		)},
		Field{"bio", Chain(
			Nullable(),
			String(),
			Sanitized(),
			NilIfEmpty(),
			MaxLength(500, "Bio must be less than 500 characters"),
		)},
		Field{"email_notifications", Chain(Default(true), Bool())},
		Field{"poll_notifications", Chain(Default(true), Bool())},
		Field{"public_profile", Chain(Default(false), Bool())},
		Field{"show_email", Chain(Default(false), Bool())},
		Field{"theme", Chain(
			Default(ThemeSystem),
			String(),
			OneOf("Invalid enum value. Expected 'light' | 'dark' | 'system'", ThemeLight, ThemeDark, ThemeSystem),
		)},
		Field{"language", Chain(
			Default("en"),
			String(),
			ExactLength(2, "String must contain exactly 2 character(s)"),
		)},
	),
	build: func(r Record) ProfileInput {
		return ProfileInput{
			Name:               r["name"].(string),
			Bio:                optionalString(r["bio"]),
			EmailNotifications: r["email_notifications"].(bool),
			PollNotifications:  r["poll_notifications"].(bool),
			PublicProfile:      r["public_profile"].(bool),
			ShowEmail:          r["show_email"].(bool),
			Theme:              r["theme"].(string),
			Language:           r["language"].(string),
		}
	},
}

func uniquePositions(value any) []Violation {
	seen := make(map[int64]bool)
	for _, item := range value.([]any) {
		pos := item.(Record)["position"].(int64)
		if seen[pos] {
			return fail("Option positions must be unique")
		}
		seen[pos] = true
	}
	return nil
}

func optionalString(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}
