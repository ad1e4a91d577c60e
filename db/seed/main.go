// Command seed loads a handful of demo contacts and one demo campaign into
// the hosted base, so a fresh workspace has something to enqueue against.
package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/nightjar-records/pressroom/environments"
	"github.com/nightjar-records/pressroom/internal/domain"
	"github.com/nightjar-records/pressroom/pkg/base"
)

func main() {
	_ = godotenv.Load()

	cfg, err := environments.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	client := base.NewClient(cfg.Base)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	contacts := []base.Fields{
		{
			domain.FieldContactFirst:    "Maya",
			domain.FieldContactLast:     "Lindqvist",
			domain.FieldContactFull:     "Maya Lindqvist",
			domain.FieldContactEmail:    "maya@monthlyspin.example",
			domain.FieldContactOutlet:   []string{"Blog"},
			domain.FieldContactRegion:   "Scandinavia",
			domain.FieldContactMailable: true,
			domain.FieldContactHook:     "covered the last two EPs",
		},
		{
			domain.FieldContactFirst:    "Tomas",
			domain.FieldContactLast:     "Rey",
			domain.FieldContactFull:     "Tomas Rey",
			domain.FieldContactEmail:    "tomas@latenightradio.example",
			domain.FieldContactOutlet:   []string{"Radio"},
			domain.FieldContactRegion:   "Iberia",
			domain.FieldContactMailable: true,
		},
		{
			domain.FieldContactFirst:    "Jo",
			domain.FieldContactLast:     "Hartley",
			domain.FieldContactFull:     "Jo Hartley",
			domain.FieldContactEmail:    "jo@thequietlist.example",
			domain.FieldContactOutlet:   []string{"Newsletter", "Blog"},
			domain.FieldContactRegion:   "UK",
			domain.FieldContactMailable: true,
		},
		{
			domain.FieldContactFirst:    "Folded",
			domain.FieldContactLast:     "Zine",
			domain.FieldContactFull:     "Folded Zine Desk",
			domain.FieldContactEmail:    "desk@foldedzine.example",
			domain.FieldContactOutlet:   []string{"Print"},
			domain.FieldContactRegion:   "UK",
			domain.FieldContactMailable: false,
		},
	}

	created, err := client.CreateRecords(ctx, domain.TableContacts, contacts)
	if err != nil {
		log.Fatalf("Failed to seed contacts: %v", err)
	}
	log.Printf("Seeded %d contacts", len(created))

	campaign := base.Fields{
		domain.FieldCampaignPitch:    "Demo pitch - Night Ferry single",
		domain.FieldCampaignSubject:  "New single: Night Ferry",
		domain.FieldCampaignBody:     "Hi {{first_name}},\n\n**Night Ferry** is out on Friday. Stream link and press shots below.\n\nBest,\nNightjar Records",
		domain.FieldCampaignStatus:   string(domain.CampaignReady),
		domain.FieldCampaignAudience: "outlet=Blog",
	}

	createdCampaigns, err := client.CreateRecords(ctx, domain.TableCampaigns, []base.Fields{campaign})
	if err != nil {
		log.Fatalf("Failed to seed campaign: %v", err)
	}
	for _, rec := range createdCampaigns {
		log.Printf("Seeded campaign %s", rec.ID)
	}

	log.Println("Seed completed successfully")
}
