package teamconfig

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	collaboratorsDocumentKeyConstant     = "collaborators"
	teamsDocumentKeyConstant             = "teams"
	defaultPermissionDocumentKeyConstant = "default_permission"
	welcomeIssueDocumentKeyConstant      = "welcome_issue"
	welcomeMessageDocumentKeyConstant    = "welcome_message"
	roleGroupPermissionKeyConstant       = "permission"
	roleGroupUsersKeyConstant            = "users"

	malformedDocumentDetailConstant        = "malformed YAML document"
	unsupportedDocumentDetailConstant      = "document must be a mapping or a sequence of collaborators"
	unsupportedEntryDetailTemplateConstant = "unsupported collaborator entry on line %d"
	unsupportedTeamEntryDetailTemplate     = "unsupported team reference on line %d"
	invalidWelcomeIssueDetailConstant      = "welcome_issue must be a boolean"
	unsupportedRoleGroupDetailTemplate     = "unsupported value for role group %q on line %d"
)

var collaboratorUsernameEntryKeys = []string{"username", "user", "name"}
var collaboratorPermissionEntryKeys = []string{"permission", "role", "access"}
var collaboratorExpirationEntryKeys = []string{"expires"}
var teamReferenceSlugEntryKeys = []string{"team", "slug", "name"}

// ParseStructured parses a structured YAML membership document. Entry nodes are
// classified by kind before field extraction, so bare usernames, detailed
// mappings, and role groups can share the same document.
func ParseStructured(content []byte) (*TeamConfig, error) {
	var documentNode yaml.Node
	if unmarshalError := yaml.Unmarshal(content, &documentNode); unmarshalError != nil {
		return nil, ConfigError{Detail: malformedDocumentDetailConstant, Cause: unmarshalError}
	}

	rootNode := documentRootNode(&documentNode)
	if rootNode == nil {
		return NewTeamConfig(DefaultPermission), nil
	}

	switch rootNode.Kind {
	case yaml.SequenceNode:
		configuration := NewTeamConfig(DefaultPermission)
		for _, entryNode := range rootNode.Content {
			if entryError := parseCollaboratorEntry(configuration, entryNode, configuration.DefaultPermission); entryError != nil {
				return nil, entryError
			}
		}
		return configuration, nil
	case yaml.MappingNode:
		return parseMappingDocument(rootNode)
	default:
		return nil, ConfigError{Detail: unsupportedDocumentDetailConstant}
	}
}

func documentRootNode(documentNode *yaml.Node) *yaml.Node {
	if documentNode.Kind != yaml.DocumentNode || len(documentNode.Content) == 0 {
		return nil
	}
	rootNode := documentNode.Content[0]
	if rootNode.Tag == "!!null" {
		return nil
	}
	return rootNode
}

func parseMappingDocument(mappingNode *yaml.Node) (*TeamConfig, error) {
	defaultPermission := DefaultPermission
	if permissionNode := lookupMappingValue(mappingNode, defaultPermissionDocumentKeyConstant); permissionNode != nil {
		defaultPermission = NormalizePermission(permissionNode.Value, DefaultPermission)
	}

	configuration := NewTeamConfig(defaultPermission)

	if welcomeIssueNode := lookupMappingValue(mappingNode, welcomeIssueDocumentKeyConstant); welcomeIssueNode != nil {
		var welcomeIssueEnabled bool
		if decodeError := welcomeIssueNode.Decode(&welcomeIssueEnabled); decodeError != nil {
			return nil, ConfigError{Detail: invalidWelcomeIssueDetailConstant, Cause: decodeError}
		}
		configuration.WelcomeIssue = welcomeIssueEnabled
	}

	if welcomeMessageNode := lookupMappingValue(mappingNode, welcomeMessageDocumentKeyConstant); welcomeMessageNode != nil {
		configuration.WelcomeMessage = strings.TrimSpace(welcomeMessageNode.Value)
	}

	if collaboratorsNode := lookupMappingValue(mappingNode, collaboratorsDocumentKeyConstant); collaboratorsNode != nil {
		if sequenceError := parseCollaboratorSequence(configuration, collaboratorsNode, configuration.DefaultPermission); sequenceError != nil {
			return nil, sequenceError
		}
	}

	for _, roleGroup := range roleGroupDefinitions {
		roleGroupNode := lookupMappingValue(mappingNode, roleGroup.RoleKey)
		if roleGroupNode == nil {
			continue
		}
		if roleGroupError := parseRoleGroup(configuration, roleGroup, roleGroupNode); roleGroupError != nil {
			return nil, roleGroupError
		}
	}

	if teamsNode := lookupMappingValue(mappingNode, teamsDocumentKeyConstant); teamsNode != nil {
		if teamsError := parseTeamReferences(configuration, teamsNode); teamsError != nil {
			return nil, teamsError
		}
	}

	return configuration, nil
}

func parseRoleGroup(configuration *TeamConfig, roleGroup roleGroupDefinition, roleGroupNode *yaml.Node) error {
	switch roleGroupNode.Kind {
	case yaml.SequenceNode:
		return parseCollaboratorSequence(configuration, roleGroupNode, roleGroup.Permission)
	case yaml.MappingNode:
		roleGroupPermission := roleGroup.Permission
		if permissionNode := lookupMappingValue(roleGroupNode, roleGroupPermissionKeyConstant); permissionNode != nil {
			roleGroupPermission = NormalizePermission(permissionNode.Value, configuration.DefaultPermission)
		}
		usersNode := lookupMappingValue(roleGroupNode, roleGroupUsersKeyConstant)
		if usersNode == nil {
			return nil
		}
		return parseCollaboratorSequence(configuration, usersNode, roleGroupPermission)
	case yaml.ScalarNode:
		configuration.AddCollaborator(Collaborator{Username: roleGroupNode.Value, Permission: roleGroup.Permission})
		return nil
	default:
		return ConfigError{Detail: fmt.Sprintf(unsupportedRoleGroupDetailTemplate, roleGroup.RoleKey, roleGroupNode.Line)}
	}
}

func parseCollaboratorSequence(configuration *TeamConfig, sequenceNode *yaml.Node, contextualPermission Permission) error {
	if sequenceNode.Kind != yaml.SequenceNode {
		return parseCollaboratorEntry(configuration, sequenceNode, contextualPermission)
	}
	for _, entryNode := range sequenceNode.Content {
		if entryError := parseCollaboratorEntry(configuration, entryNode, contextualPermission); entryError != nil {
			return entryError
		}
	}
	return nil
}

func parseCollaboratorEntry(configuration *TeamConfig, entryNode *yaml.Node, contextualPermission Permission) error {
	switch entryNode.Kind {
	case yaml.ScalarNode:
		configuration.AddCollaborator(Collaborator{Username: entryNode.Value, Permission: contextualPermission})
		return nil
	case yaml.MappingNode:
		entryUsername := lookupFirstMappingValue(entryNode, collaboratorUsernameEntryKeys)
		if entryUsername == nil {
			return ConfigError{Detail: fmt.Sprintf(unsupportedEntryDetailTemplateConstant, entryNode.Line)}
		}

		// An absent permission field inherits the contextual permission; a present
		// but unrecognized value collapses to the document default.
		entryPermission := contextualPermission
		if permissionNode := lookupFirstMappingValue(entryNode, collaboratorPermissionEntryKeys); permissionNode != nil {
			entryPermission = NormalizePermission(permissionNode.Value, configuration.DefaultPermission)
		}

		collaborator := Collaborator{Username: entryUsername.Value, Permission: entryPermission}
		if expiresNode := lookupFirstMappingValue(entryNode, collaboratorExpirationEntryKeys); expiresNode != nil && len(strings.TrimSpace(expiresNode.Value)) > 0 {
			parsedExpiration, parseError := ParseExpirationDate(strings.TrimSpace(expiresNode.Value))
			if parseError != nil {
				return parseError
			}
			collaborator.Expires = &parsedExpiration
		}

		configuration.AddCollaborator(collaborator)
		return nil
	default:
		return ConfigError{Detail: fmt.Sprintf(unsupportedEntryDetailTemplateConstant, entryNode.Line)}
	}
}

func parseTeamReferences(configuration *TeamConfig, teamsNode *yaml.Node) error {
	if teamsNode.Kind != yaml.SequenceNode {
		return ConfigError{Detail: fmt.Sprintf(unsupportedTeamEntryDetailTemplate, teamsNode.Line)}
	}

	for _, referenceNode := range teamsNode.Content {
		switch referenceNode.Kind {
		case yaml.ScalarNode:
			configuration.AddTeamReference(TeamReference{Slug: referenceNode.Value, Permission: configuration.DefaultPermission})
		case yaml.MappingNode:
			if parseError := parseTeamReferenceMapping(configuration, referenceNode); parseError != nil {
				return parseError
			}
		default:
			return ConfigError{Detail: fmt.Sprintf(unsupportedTeamEntryDetailTemplate, referenceNode.Line)}
		}
	}

	return nil
}

func parseTeamReferenceMapping(configuration *TeamConfig, referenceNode *yaml.Node) error {
	if slugNode := lookupFirstMappingValue(referenceNode, teamReferenceSlugEntryKeys); slugNode != nil {
		referencePermission := configuration.DefaultPermission
		if permissionNode := lookupMappingValue(referenceNode, roleGroupPermissionKeyConstant); permissionNode != nil {
			referencePermission = NormalizePermission(permissionNode.Value, configuration.DefaultPermission)
		}
		configuration.AddTeamReference(TeamReference{Slug: slugNode.Value, Permission: referencePermission})
		return nil
	}

	// A single-pair mapping reads as "org/team-slug": permission.
	if len(referenceNode.Content) >= 2 {
		slugValue := referenceNode.Content[0].Value
		permissionValue := referenceNode.Content[1].Value
		configuration.AddTeamReference(TeamReference{
			Slug:       slugValue,
			Permission: NormalizePermission(permissionValue, configuration.DefaultPermission),
		})
		return nil
	}

	return ConfigError{Detail: fmt.Sprintf(unsupportedTeamEntryDetailTemplate, referenceNode.Line)}
}

func lookupMappingValue(mappingNode *yaml.Node, expectedKey string) *yaml.Node {
	if mappingNode.Kind != yaml.MappingNode {
		return nil
	}
	for contentIndex := 0; contentIndex+1 < len(mappingNode.Content); contentIndex += 2 {
		keyNode := mappingNode.Content[contentIndex]
		if strings.EqualFold(strings.TrimSpace(keyNode.Value), expectedKey) {
			return mappingNode.Content[contentIndex+1]
		}
	}
	return nil
}

func lookupFirstMappingValue(mappingNode *yaml.Node, candidateKeys []string) *yaml.Node {
	for _, candidateKey := range candidateKeys {
		if valueNode := lookupMappingValue(mappingNode, candidateKey); valueNode != nil {
			return valueNode
		}
	}
	return nil
}
