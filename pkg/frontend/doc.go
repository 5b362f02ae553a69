/******************************************************************************\
* The Luma Language                                                            *
*                                                                              *
* Copyright 2026 Leandro Motta Barros                                          *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

// The frontend package contains everything needed to turn Luma source code
// into an Abstract Syntax Tree (AST).
//
// Highlights here are the scanner and the parser.
package frontend
