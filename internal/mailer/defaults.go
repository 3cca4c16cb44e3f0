package mailer

import (
	"github.com/coffeemorning/cmc-backend/pkg/db/models"
	"github.com/coffeemorning/cmc-backend/pkg/enums"
)

// defaultTemplates are compiled-in fallbacks used when the template store has
// no active row for a type or cannot be reached. They keep transactional mail
// flowing until the database-managed templates are restored.
var defaultTemplates = map[enums.TemplateType]models.EmailTemplate{
	enums.TemplateDonationReceipt: {
		Type:    enums.TemplateDonationReceipt,
		Subject: "Thank you for your donation{{#donor_name}}, {{donor_name}}{{/donor_name}}",
		BodyHTML: "<p>Hi{{#donor_name}} {{donor_name}}{{/donor_name}},</p>" +
			"<p>Thank you for your donation of &euro;{{amount}} to the Coffee Morning Challenge.</p>" +
			"<p>Your support makes a real difference.</p>",
		BodyText: "Hi{{#donor_name}} {{donor_name}}{{/donor_name}},\n\n" +
			"Thank you for your donation of EUR {{amount}} to the Coffee Morning Challenge.\n\n" +
			"Your support makes a real difference.",
		IsActive: true,
	},
	enums.TemplatePackOrdered: {
		Type:    enums.TemplatePackOrdered,
		Subject: "Your Coffee Morning pack is on its way",
		BodyHTML: "<p>Hi {{organizer_name}},</p>" +
			"<p>Thanks for ordering a {{pack_type}} pack for {{campaign_title}}. " +
			"We will let you know when it ships.</p>",
		BodyText: "Hi {{organizer_name}},\n\n" +
			"Thanks for ordering a {{pack_type}} pack for {{campaign_title}}. " +
			"We will let you know when it ships.",
		IsActive: true,
	},
	enums.TemplateCampaignApproved: {
		Type:    enums.TemplateCampaignApproved,
		Subject: "{{campaign_title}} is now live",
		BodyHTML: "<p>Hi {{organizer_name}},</p>" +
			"<p>Good news. {{campaign_title}} has been approved and is now live.</p>" +
			"<p>Share your page with supporters: <a href=\"{{campaign_url}}\">{{campaign_url}}</a></p>",
		BodyText: "Hi {{organizer_name}},\n\n" +
			"Good news. {{campaign_title}} has been approved and is now live.\n\n" +
			"Share your page with supporters: {{campaign_url}}",
		IsActive: true,
	},
	enums.TemplatePaymentLink: {
		Type:    enums.TemplatePaymentLink,
		Subject: "Complete your Coffee Morning pack payment",
		BodyHTML: "<p>Hi {{organizer_name}},</p>" +
			"<p>Your pack order for {{campaign_title}} is reserved but not yet paid. " +
			"Use the link below to complete the payment:</p>" +
			"<p><a href=\"{{payment_url}}\">{{payment_url}}</a></p>",
		BodyText: "Hi {{organizer_name}},\n\n" +
			"Your pack order for {{campaign_title}} is reserved but not yet paid. " +
			"Use the link below to complete the payment:\n\n{{payment_url}}",
		IsActive: true,
	},
}

func defaultTemplate(t enums.TemplateType) (*models.EmailTemplate, bool) {
	tpl, ok := defaultTemplates[t]
	if !ok {
		return nil, false
	}
	return &tpl, true
}
