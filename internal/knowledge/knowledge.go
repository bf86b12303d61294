// Package knowledge holds the static product and policy corpus fed to
// the per-user index alongside applications and resume text.
//
// The corpus is compiled in: it changes with releases, not with user
// data, and keeping it in the binary means retrieval works with zero
// external state.
package knowledge

import "github.com/interviewvault/vault/internal/chunk"

// productText is the product knowledge base. "##" headers mark the
// subsection boundaries the chunker splits on.
const productText = `
INTERVIEW VAULT - APPLICATION KNOWLEDGE BASE

## About Interview Vault
Interview Vault is an AI-powered companion for the job search journey. It combines intelligent application tracking, AI analysis, and smart automation to help candidates land their next role.

## Core Features
- Interview Tracker with Intelligence - Track all job applications in one place with statuses, HR contacts, and applied dates
- AI-Powered Resume Skill Match Analysis - Instant analysis of how a resume matches a job description
- AI-Powered Project Ideas Generation - Custom project suggestions based on detected skill gaps
- AI-Powered Interview Preparation - Generates tailored interview questions per application
- Multi-Company Database - Pre-filled information for 350+ companies
- Career Chat Assistant - Ask questions about your applications, salaries, and companies

## Plans and Signup
Guests can chat with the assistant without an account, but application tracking, resume analysis, and personalized retrieval require signing up. Signup is free; the tracker and chat assistant are included in the free tier.

## Contact and Support
Support is reachable at support@interviewvault.app. Product updates are announced on the website. Feature requests go through the in-app feedback form and are triaged weekly.
`

// policyText is the policy knowledge base.
const policyText = `
INTERVIEW VAULT - POLICY KNOWLEDGE BASE

## Data Privacy
User application data and resume text are used only to answer that user's own questions. They are never shared with other users, never sold, and never used to train models. Guests have no stored data at all.

## Data Retention
Application records and resume text persist until the user deletes them or closes the account. Deleting an account removes all associated records within 30 days. Derived artifacts such as retrieval indexes are rebuilt on demand and discarded when underlying data changes.

## Acceptable Use
The assistant answers career-related questions: applications, interviews, salaries, companies, and job search strategy. It does not provide legal or immigration advice, and salary analyses are informational estimates, not offers or guarantees.

## Web Search Disclosure
When the assistant searches the web for salaries or company information, results come from public job sites. Cited sources are listed with each answer so users can verify claims themselves.
`

// Entries returns the static corpus in chunker form.
func Entries() []chunk.KnowledgeEntry {
	return []chunk.KnowledgeEntry{
		{Kind: chunk.KindProductInfo, Body: productText},
		{Kind: chunk.KindPolicy, Body: policyText},
	}
}
