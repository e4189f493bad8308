package notionsync

import (
	"time"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/efinance/internal/domain"
)

// Property names of the export database.
const (
	PropDescription = "Description"
	PropRecordID    = "Record ID"
	PropUserID      = "User ID"
	PropKind        = "Kind"
	PropType        = "Type"
	PropAmount      = "Amount"
	PropDate        = "Date"
	PropSource      = "Source"
)

// RecordToNotionProperties converts a record to page properties. The
// description is the page title; Record ID keys the page for later exports.
func RecordToNotionProperties(rec *domain.Record) notionapi.Properties {
	date := notionapi.Date(time.Date(rec.Date.Year, rec.Date.Month, rec.Date.Day, 0, 0, 0, 0, time.UTC))
	amount, _ := rec.Amount.Float64()

	props := notionapi.Properties{
		PropDescription: notionapi.TitleProperty{
			Title: richText(rec.Description),
		},
		PropRecordID: notionapi.RichTextProperty{
			RichText: richText(rec.ID),
		},
		PropUserID: notionapi.RichTextProperty{
			RichText: richText(rec.UserID),
		},
		PropKind: notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(rec.Kind)},
		},
		PropAmount: notionapi.NumberProperty{
			Number: amount,
		},
		PropDate: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &date},
		},
	}

	if rec.Type != "" {
		props[PropType] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: rec.Type},
		}
	}
	if rec.Source != "" {
		props[PropSource] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: rec.Source},
		}
	}
	return props
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: s},
		},
	}
}

// plainText reads a rich-text property from a queried page.
func plainText(page notionapi.Page, name string) string {
	prop, ok := page.Properties[name]
	if !ok {
		return ""
	}
	rt, ok := prop.(*notionapi.RichTextProperty)
	if !ok || len(rt.RichText) == 0 {
		return ""
	}
	if rt.RichText[0].PlainText != "" {
		return rt.RichText[0].PlainText
	}
	if rt.RichText[0].Text != nil {
		return rt.RichText[0].Text.Content
	}
	return ""
}

// pageDate reads the start of a date property, or the zero time.
func pageDate(page notionapi.Page, name string) time.Time {
	prop, ok := page.Properties[name]
	if !ok {
		return time.Time{}
	}
	dp, ok := prop.(*notionapi.DateProperty)
	if !ok || dp.Date == nil || dp.Date.Start == nil {
		return time.Time{}
	}
	return time.Time(*dp.Date.Start)
}
