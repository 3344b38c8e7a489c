// ABOUTME: Graphviz rendering of the workspace
// ABOUTME: Draws companies, contacts, deals and referral links as a single DOT graph
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/crmd/db"
)

// GenerateGraph renders snap as DOT source. Contacts link to their company,
// deals hang off their company and contact, and referrals link contacts.
func GenerateGraph(ctx context.Context, snap *db.Snapshot) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer func() { _ = gv.Close() }()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() { _ = graph.Close() }()

	graph.SetLabel("CRM Workspace")
	graph.SetRankDir(cgraph.LRRank)

	companyNodes := make(map[string]*cgraph.Node)
	for _, company := range snap.Companies.All() {
		node, err := graph.CreateNodeByName("company_" + company.ID)
		if err != nil {
			return "", fmt.Errorf("failed to create company node: %w", err)
		}
		node.SetLabel(fmt.Sprintf("%s\n(Company)", company.Name))
		node.SetShape("box")
		node.SetStyle("filled")
		node.SetFillColor("lightblue")
		companyNodes[company.ID] = node
	}

	contacts := snap.Contacts.All()
	contactNodes := make(map[string]*cgraph.Node)
	for _, contact := range contacts {
		node, err := graph.CreateNodeByName("contact_" + contact.ID)
		if err != nil {
			return "", fmt.Errorf("failed to create contact node: %w", err)
		}
		node.SetLabel(fmt.Sprintf("%s\n%s", contact.Name, contact.Title))
		node.SetShape("ellipse")
		node.SetStyle("filled")
		node.SetFillColor("lightgreen")
		contactNodes[contact.ID] = node

		if companyNode, ok := companyNodes[contact.CompanyID]; ok {
			edge, err := graph.CreateEdgeByName("works_at_"+contact.ID, node, companyNode)
			if err != nil {
				return "", fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetLabel("works at")
			edge.SetStyle("dashed")
		}
	}

	for _, contact := range contacts {
		referrer, ok := contactNodes[contact.ReferredByID]
		if !ok {
			continue
		}
		edge, err := graph.CreateEdgeByName("referred_"+contact.ID, referrer, contactNodes[contact.ID])
		if err != nil {
			return "", fmt.Errorf("failed to create referral edge: %w", err)
		}
		edge.SetLabel("referred")
	}

	for _, deal := range snap.Deals.All() {
		node, err := graph.CreateNodeByName("deal_" + deal.ID)
		if err != nil {
			return "", fmt.Errorf("failed to create deal node: %w", err)
		}
		node.SetLabel(fmt.Sprintf("%s\n$%.0fK\n(%s)", deal.Title, deal.Value/1000, deal.Stage))
		node.SetShape("diamond")
		node.SetStyle("filled")
		node.SetFillColor("lightyellow")

		if companyNode, ok := companyNodes[deal.CompanyID]; ok {
			edge, err := graph.CreateEdgeByName("deal_with_"+deal.ID, companyNode, node)
			if err != nil {
				return "", fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetLabel("deal")
		}

		if contactNode, ok := contactNodes[deal.ContactID]; ok {
			edge, err := graph.CreateEdgeByName("contact_for_"+deal.ID, contactNode, node)
			if err != nil {
				return "", fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetLabel("contact")
			edge.SetStyle("dotted")
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}

	return buf.String(), nil
}
