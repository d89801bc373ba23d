package domain

// DefaultBlueprintID is the ID of the bundled food delivery workflow.
const DefaultBlueprintID = "food-order"

// DefaultBlueprint returns the bundled food delivery workflow:
// created -> preparing -> delivering -> delivered.
func DefaultBlueprint() WorkflowBlueprint {
	return WorkflowBlueprint{
		ID:   DefaultBlueprintID,
		Name: "Food Order Processing",
		States: []WorkflowState{
			{ID: "created", Name: "Order Created", IsInitial: true, IsEnabled: true},
			{ID: "preparing", Name: "Preparing Food", IsEnabled: true},
			{ID: "delivering", Name: "Out for Delivery", IsEnabled: true},
			{ID: "delivered", Name: "Delivered", IsFinal: true, IsEnabled: true},
		},
		Actions: []WorkflowAction{
			{ID: "start-prep", Name: "Start Preparing", IsEnabled: true, FromStates: []string{"created"}, ToState: "preparing"},
			{ID: "send-out", Name: "Send Out for Delivery", IsEnabled: true, FromStates: []string{"preparing"}, ToState: "delivering"},
			{ID: "mark-delivered", Name: "Mark as Delivered", IsEnabled: true, FromStates: []string{"delivering"}, ToState: "delivered"},
		},
	}
}
