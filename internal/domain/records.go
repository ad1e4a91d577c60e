// Package domain defines the entities stored in the external tabular base and
// the one decoder per table that validates rows at the client boundary.
package domain

import (
	"time"

	"github.com/nightjar-records/pressroom/pkg/base"
)

// Table names in the base.
const (
	TableContacts     = "Contacts"
	TableCampaigns    = "Campaigns"
	TableSends        = "Sends"
	TableEvents       = "Events"
	TableSuppressions = "Suppressions"
)

// Column names, kept in one place so filter formulas and field writes cannot
// drift apart.
const (
	FieldContactEmail    = "Email"
	FieldContactFirst    = "First Name"
	FieldContactLast     = "Last Name"
	FieldContactFull     = "Full Name"
	FieldContactOutlet   = "Outlet"
	FieldContactRegion   = "Region"
	FieldContactMailable = "Mailable"
	FieldContactHook     = "Hook"

	FieldCampaignPitch    = "Pitch"
	FieldCampaignSubject  = "Subject"
	FieldCampaignBody     = "Body"
	FieldCampaignStatus   = "Status"
	FieldCampaignAudience = "Audience"
	FieldCampaignSentAt   = "Sent At"

	FieldSendEmail      = "Email"
	FieldSendFrom       = "From"
	FieldSendReplyTo    = "Reply To"
	FieldSendStatus     = "Status"
	FieldSendProviderID = "Provider Message ID"
	FieldSendContact    = "Contact"
	FieldSendCampaign   = "Campaign"
	FieldSendNotes      = "Notes"
	FieldSendSentAt     = "Sent At"

	FieldEventID         = "Event ID"
	FieldEventType       = "Type"
	FieldEventReceivedAt = "Received At"
	FieldEventPayload    = "Payload"
	FieldEventTo         = "To"
	FieldEventFrom       = "From"
	FieldEventSubject    = "Subject"

	FieldSuppressionEmail     = "Email"
	FieldSuppressionContact   = "Contact"
	FieldSuppressionReason    = "Reason"
	FieldSuppressionStartDate = "Start Date"
	FieldSuppressionNotes     = "Notes"
)

type CampaignStatus string

const (
	CampaignReady    CampaignStatus = "Ready"
	CampaignSending  CampaignStatus = "Sending"
	CampaignComplete CampaignStatus = "Complete"
)

type SendStatus string

const (
	SendQueued     SendStatus = "Queued"
	SendSent       SendStatus = "Sent"
	SendFailed     SendStatus = "Failed"
	SendDelivered  SendStatus = "Delivered"
	SendBounced    SendStatus = "Bounced"
	SendComplained SendStatus = "Complained"
)

type SuppressionReason string

const (
	SuppressionBounced      SuppressionReason = "Bounced"
	SuppressionComplaint    SuppressionReason = "Complaint"
	SuppressionUnsubscribed SuppressionReason = "Unsubscribed"
)

type Contact struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"firstName,omitempty"`
	LastName  string   `json:"lastName,omitempty"`
	FullName  string   `json:"fullName,omitempty"`
	Outlets   []string `json:"outlets,omitempty"`
	Region    string   `json:"region,omitempty"`
	Mailable  bool     `json:"mailable"`
	Hook      string   `json:"hook,omitempty"`
}

type Campaign struct {
	ID       string         `json:"id"`
	Pitch    string         `json:"pitch"`
	Subject  string         `json:"subject"`
	Body     string         `json:"body"`
	Status   CampaignStatus `json:"status"`
	Audience string         `json:"audience,omitempty"`
	SentAt   *time.Time     `json:"sentAt,omitempty"`
}

type Send struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	From              string     `json:"from"`
	ReplyTo           string     `json:"replyTo,omitempty"`
	Status            SendStatus `json:"status"`
	ProviderMessageID string     `json:"providerMessageId,omitempty"`
	ContactIDs        []string   `json:"contactIds,omitempty"`
	CampaignIDs       []string   `json:"campaignIds,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	SentAt            *time.Time `json:"sentAt,omitempty"`
}

type Suppression struct {
	ID         string            `json:"id"`
	Email      string            `json:"email"`
	ContactIDs []string          `json:"contactIds,omitempty"`
	Reason     SuppressionReason `json:"reason"`
	StartDate  *time.Time        `json:"startDate,omitempty"`
	Notes      string            `json:"notes,omitempty"`
}

func ContactFromRecord(r base.Record) Contact {
	return Contact{
		ID:        r.ID,
		Email:     r.String(FieldContactEmail),
		FirstName: r.String(FieldContactFirst),
		LastName:  r.String(FieldContactLast),
		FullName:  r.String(FieldContactFull),
		Outlets:   r.Strings(FieldContactOutlet),
		Region:    r.String(FieldContactRegion),
		Mailable:  r.Bool(FieldContactMailable),
		Hook:      r.String(FieldContactHook),
	}
}

func CampaignFromRecord(r base.Record) Campaign {
	return Campaign{
		ID:       r.ID,
		Pitch:    r.String(FieldCampaignPitch),
		Subject:  r.String(FieldCampaignSubject),
		Body:     r.String(FieldCampaignBody),
		Status:   CampaignStatus(r.String(FieldCampaignStatus)),
		Audience: r.String(FieldCampaignAudience),
		SentAt:   r.Time(FieldCampaignSentAt),
	}
}

func SendFromRecord(r base.Record) Send {
	return Send{
		ID:                r.ID,
		Email:             r.String(FieldSendEmail),
		From:              r.String(FieldSendFrom),
		ReplyTo:           r.String(FieldSendReplyTo),
		Status:            SendStatus(r.String(FieldSendStatus)),
		ProviderMessageID: r.String(FieldSendProviderID),
		ContactIDs:        r.Strings(FieldSendContact),
		CampaignIDs:       r.Strings(FieldSendCampaign),
		Notes:             r.String(FieldSendNotes),
		SentAt:            r.Time(FieldSendSentAt),
	}
}

func SuppressionFromRecord(r base.Record) Suppression {
	return Suppression{
		ID:         r.ID,
		Email:      r.String(FieldSuppressionEmail),
		ContactIDs: r.Strings(FieldSuppressionContact),
		Reason:     SuppressionReason(r.String(FieldSuppressionReason)),
		StartDate:  r.Time(FieldSuppressionStartDate),
		Notes:      r.String(FieldSuppressionNotes),
	}
}
