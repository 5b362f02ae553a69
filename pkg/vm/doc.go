/******************************************************************************\
* The Luma Language                                                            *
*                                                                              *
* Copyright 2026 Leandro Motta Barros                                          *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

// The vm package implements the Luma Virtual Machine, which executes the
// bytecode generated by the Luma compiler backend.
package vm
