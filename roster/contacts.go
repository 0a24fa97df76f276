// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package roster

// ProductEscalationContacts is the duty roster for product escalations.
// Changing it is a deploy, not a runtime operation.
var ProductEscalationContacts = []Entry{
	{
		Category: "Container",
		Code:     "CNTR",
		PrimaryContact: Contact{
			Name:  "Mark Lee",
			Email: "mark.lee@psa123.com",
			Role:  "Product Ops Manager",
		},
		Responsibilities: "Oversees all container-related product incidents and operational issues.",
		Guidelines: []string{
			"Notify the Product Duty contact immediately.",
			"If unresolved quickly escalate to the on-call manager.",
			"Engage the SRE/Infra team when platform-level intervention is required.",
		},
	},
	{
		Category: "Vessel",
		Code:     "VS",
		PrimaryContact: Contact{
			Name:  "Jaden Smith",
			Email: "jaden.smith@psa123.com",
			Role:  "Vessel Operations Lead",
		},
		Responsibilities: "Coordinates vessel management issues and complex troubleshooting.",
		Guidelines: []string{
			"Page the Vessel Duty team first.",
			"If there is no response, escalate to the Senior Ops Manager.",
			"Loop in the Vessel Static team for deeper diagnostics as needed.",
		},
	},
	{
		Category: "EDI/API",
		Code:     "EA",
		PrimaryContact: Contact{
			Name:  "Tom Tan",
			Email: "tom.tan@psa123.com",
			Role:  "EDI/API Support Lead",
		},
		Responsibilities: "Handles EDI/API incidents covering message validation, partner communication, and integration errors.",
		Guidelines: []string{
			"Contact the EDI/API on-call channel immediately.",
			"Escalate to the Infra/SRE team for sustained API failures.",
			"Coordinate with partner organizations if issues continue.",
		},
	},
	{
		Category: "Infrastructure / SRE",
		Code:     "INFRA",
		PrimaryContact: Contact{
			Name:  "Jacky Chan",
			Email: "jacky.chan@psa123.com",
			Role:  "Infra/SRE Support Lead",
		},
		Responsibilities: "Responds to system infrastructure problems such as latency or network instability.",
		Guidelines: []string{
			"Engage the Infra team immediately for any platform outage symptoms.",
			"Highlight urgent cases directly to Jacky Chan (SRE lead).",
		},
	},
	{
		Category: "Helpdesk",
		Code:     "HELPDESK",
		PrimaryContact: Contact{
			Name:  "PSA Helpdesk",
			Email: "support@psa123.com",
			Role:  "General Support",
		},
		Responsibilities: "Frontline for general inquiries and non-technical escalations.",
		Guidelines: []string{
			"Route non-urgent queries to the helpdesk team lead.",
			"For emergencies, trigger the on-call operations team immediately.",
		},
	},
}

// DefaultResolver resolves against ProductEscalationContacts.
func DefaultResolver() *Resolver {
	return NewResolver(ProductEscalationContacts)
}
